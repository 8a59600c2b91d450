package fiscal

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientRecord is the slice of a client that compliance aggregation needs.
// The application layer maps client aggregates onto it; keeping the input
// this narrow keeps Aggregate a pure function of (clients, today).
type ClientRecord struct {
	ID   uuid.UUID
	Name string
	Data *FiscalData
}

// Alert is a derived attestation-expiry entry. It is recomputed on every
// aggregation pass and never persisted.
type Alert struct {
	ClientID      uuid.UUID `json:"client_id"`
	ClientName    string    `json:"client_name"`
	DocumentLabel string    `json:"document_label"`
	ExpiryDate    string    `json:"expiry_date"`
	DaysRemaining int       `json:"days_remaining"`
	IsExpired     bool      `json:"is_expired"`
	IsUrgent      bool      `json:"is_urgent"`
}

// ObligationRow is a derived outstanding-obligation entry for one client,
// one obligation type and one fiscal year.
type ObligationRow struct {
	ClientID      uuid.UUID      `json:"client_id"`
	ClientName    string         `json:"client_name"`
	Type          ObligationType `json:"type"`
	Label         string         `json:"label"`
	Year          string         `json:"year"`
	Deadline      string         `json:"deadline,omitempty"`
	DaysRemaining int            `json:"days_remaining"`
	IsExpired     bool           `json:"is_expired"`
	IsUrgent      bool           `json:"is_urgent"`
}

// Report is the full compliance picture for a set of clients at a given day
type Report struct {
	Alerts      []Alert         `json:"alerts"`
	Obligations []ObligationRow `json:"obligations"`
}

// AggregateOptions carries the caller-chosen urgency windows
type AggregateOptions struct {
	AttestationWindow int
	TaxWindow         int
}

// DefaultAggregateOptions returns the dashboard windows
func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{
		AttestationWindow: DefaultAttestationWindow,
		TaxWindow:         DefaultTaxWindow,
	}
}

// Aggregate scans every client and produces the alert and outstanding lists
// consumed by dashboard views. It is a pure function of its inputs: output is
// recomputed from scratch, deterministically ordered, and calling it twice
// with the same inputs yields identical results.
//
// Clients hidden from the dashboard are excluded entirely. Clients with no
// fiscal data, no entry for the active year, or unparseable dates are skipped
// silently; unparseable dates are logged for diagnostics.
func Aggregate(clients []ClientRecord, today time.Time, opts AggregateOptions, log *zap.Logger) Report {
	if log == nil {
		log = zap.NewNop()
	}

	report := Report{
		Alerts:      make([]Alert, 0),
		Obligations: make([]ObligationRow, 0),
	}

	for _, c := range clients {
		if c.Data == nil || c.Data.HiddenFromDashboard {
			continue
		}

		if alert, ok := attestationAlert(c, today, opts.AttestationWindow, log); ok {
			report.Alerts = append(report.Alerts, alert)
		}

		year := c.Data.ActiveYear(today)
		yearStatus := c.Data.YearStatus(year)
		if yearStatus == nil {
			continue
		}

		for _, t := range AllObligationTypes() {
			status, present := yearStatus[t]
			if !present || !status.Outstanding(t) {
				continue
			}
			report.Obligations = append(report.Obligations, obligationRow(c, t, year, today, opts.TaxWindow))
		}
	}

	sortAlerts(report.Alerts)
	sortObligations(report.Obligations)
	return report
}

// attestationAlert evaluates one client's attestation against the expiry
// window. Already-expired attestations are included deliberately: the
// inclusion rule is daysRemaining <= window with no lower bound.
func attestationAlert(c ClientRecord, today time.Time, window int, log *zap.Logger) (Alert, bool) {
	att := c.Data.Attestation
	if att == nil || att.ValidityEndDate == "" || !att.Visible() {
		return Alert{}, false
	}

	deadline, err := ParseDate(att.ValidityEndDate)
	if err != nil {
		log.Warn("Skipping attestation with unparseable validity end date",
			zap.String("client_id", c.ID.String()),
			zap.String("validity_end_date", att.ValidityEndDate))
		return Alert{}, false
	}

	eval := EvaluateDeadline(deadline, today, window)
	if eval.DaysRemaining > window {
		return Alert{}, false
	}

	return Alert{
		ClientID:      c.ID,
		ClientName:    c.Name,
		DocumentLabel: "Attestation de conformité fiscale",
		ExpiryDate:    att.ValidityEndDate,
		DaysRemaining: eval.DaysRemaining,
		IsExpired:     eval.IsExpired,
		IsUrgent:      eval.IsUrgent,
	}, true
}

func obligationRow(c ClientRecord, t ObligationType, year string, today time.Time, window int) ObligationRow {
	row := ObligationRow{
		ClientID:   c.ID,
		ClientName: c.Name,
		Type:       t,
		Label:      t.Label(),
		Year:       year,
	}

	// A non-numeric year key has no statutory deadline to evaluate; the row
	// still surfaces as outstanding, sorted after dated rows.
	yearNum, err := strconv.Atoi(year)
	if err != nil {
		row.DaysRemaining = int(^uint(0) >> 1)
		return row
	}

	if deadline, ok := DeadlineFor(t, yearNum); ok {
		eval := EvaluateDeadline(deadline, today, window)
		row.Deadline = FormatDate(deadline)
		row.DaysRemaining = eval.DaysRemaining
		row.IsExpired = eval.IsExpired
		row.IsUrgent = eval.IsUrgent
	}
	return row
}

// Sort contract for both lists: every expired entry precedes every
// non-expired entry; within each group entries are ascending by days
// remaining. Ties break on client name, then ID, for determinism.

func sortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.IsExpired != b.IsExpired {
			return a.IsExpired
		}
		if a.DaysRemaining != b.DaysRemaining {
			return a.DaysRemaining < b.DaysRemaining
		}
		if a.ClientName != b.ClientName {
			return a.ClientName < b.ClientName
		}
		return a.ClientID.String() < b.ClientID.String()
	})
}

func sortObligations(rows []ObligationRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.IsExpired != b.IsExpired {
			return a.IsExpired
		}
		if a.DaysRemaining != b.DaysRemaining {
			return a.DaysRemaining < b.DaysRemaining
		}
		if a.ClientName != b.ClientName {
			return a.ClientName < b.ClientName
		}
		return a.Type < b.Type
	})
}
