package fiscal

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Attestation is a tax-compliance certificate with a fixed validity window.
// Dates are persisted as DD/MM/YYYY strings; ValidityEndDate is derived as
// CreationDate + 3 months at write time (AttestationValidityEnd).
type Attestation struct {
	CreationDate    string `json:"creationDate,omitempty"`
	ValidityEndDate string `json:"validityEndDate,omitempty"`
	ShowInAlert     *bool  `json:"showInAlert,omitempty"`
}

// Visible reports whether the attestation participates in alert views.
// Absence of the flag means visible.
func (a *Attestation) Visible() bool {
	return a.ShowInAlert == nil || *a.ShowInAlert
}

// YearObligations maps obligation types to their status for one fiscal year
type YearObligations map[ObligationType]ObligationStatus

// FiscalData is the semi-structured fiscal document owned by a client.
// It is replaced wholesale on write; partial updates go through Apply.
type FiscalData struct {
	Attestation         *Attestation               `json:"attestation,omitempty"`
	Obligations         map[string]YearObligations `json:"obligations,omitempty"`
	HiddenFromDashboard bool                       `json:"hiddenFromDashboard,omitempty"`
	SelectedYear        string                     `json:"selectedYear,omitempty"`
	AnnualTurnover      *decimal.Decimal           `json:"annualTurnover,omitempty"`

	// LegacyIGS absorbs the historical shape where the IGS record sat at the
	// document's top level instead of under obligations. Normalize folds it
	// into the canonical map; internal code never reads it.
	LegacyIGS *ObligationStatus `json:"igs,omitempty"`
}

// ActiveYear resolves the fiscal-year key used for obligation lookups:
// the explicitly selected year, or the current calendar year.
func (d *FiscalData) ActiveYear(today time.Time) string {
	if d != nil && d.SelectedYear != "" {
		return d.SelectedYear
	}
	return strconv.Itoa(today.Year())
}

// YearStatus returns the obligation map for a year key, or nil when the
// document holds no data for that year.
func (d *FiscalData) YearStatus(year string) YearObligations {
	if d == nil || d.Obligations == nil {
		return nil
	}
	return d.Obligations[year]
}

// Normalize rewrites the document into its canonical shape. It is applied
// once at the read boundary so internal code only ever sees:
//   - a non-nil obligations map,
//   - the IGS record under its fiscal year, never at the top level.
//
// Normalizing an already-canonical document is a no-op.
func (d *FiscalData) Normalize(today time.Time) {
	if d == nil {
		return
	}
	if d.Obligations == nil {
		d.Obligations = make(map[string]YearObligations)
	}
	if d.LegacyIGS != nil {
		year := d.ActiveYear(today)
		yo := d.Obligations[year]
		if yo == nil {
			yo = make(YearObligations)
			d.Obligations[year] = yo
		}
		// A canonical entry wins over the legacy one.
		if _, exists := yo[ObligationIGS]; !exists {
			yo[ObligationIGS] = *d.LegacyIGS
		}
		d.LegacyIGS = nil
	}
}

// FiscalDataPatch is a partial fiscal-data update. Pointer fields distinguish
// "leave unchanged" (nil) from "set to zero value"; the obligations map, when
// present, is merged one level deep so updating one year never erases others.
type FiscalDataPatch struct {
	Attestation         *Attestation               `json:"attestation,omitempty"`
	Obligations         map[string]YearObligations `json:"obligations,omitempty"`
	HiddenFromDashboard *bool                      `json:"hiddenFromDashboard,omitempty"`
	SelectedYear        *string                    `json:"selectedYear,omitempty"`
	AnnualTurnover      *decimal.Decimal           `json:"annualTurnover,omitempty"`
}

// IsEmpty reports whether the patch carries no changes
func (p FiscalDataPatch) IsEmpty() bool {
	return p.Attestation == nil &&
		len(p.Obligations) == 0 &&
		p.HiddenFromDashboard == nil &&
		p.SelectedYear == nil &&
		p.AnnualTurnover == nil
}

// YearKeys returns the fiscal-year keys the patch touches, for write
// verification.
func (p FiscalDataPatch) YearKeys() []string {
	keys := make([]string, 0, len(p.Obligations))
	for y := range p.Obligations {
		keys = append(keys, y)
	}
	return keys
}

// Apply merges the patch onto the document and returns the merged result.
// Top-level keys are replaced; obligations are merged per fiscal year.
// The receiver is not mutated.
func (d FiscalData) Apply(p FiscalDataPatch) FiscalData {
	merged := d
	if p.Attestation != nil {
		merged.Attestation = p.Attestation
	}
	if p.HiddenFromDashboard != nil {
		merged.HiddenFromDashboard = *p.HiddenFromDashboard
	}
	if p.SelectedYear != nil {
		merged.SelectedYear = *p.SelectedYear
	}
	if p.AnnualTurnover != nil {
		merged.AnnualTurnover = p.AnnualTurnover
	}
	if len(p.Obligations) > 0 {
		obligations := make(map[string]YearObligations, len(d.Obligations)+len(p.Obligations))
		for year, yo := range d.Obligations {
			obligations[year] = yo
		}
		for year, yo := range p.Obligations {
			obligations[year] = yo
		}
		merged.Obligations = obligations
	}
	return merged
}
