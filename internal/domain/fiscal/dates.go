package fiscal

import (
	"regexp"
	"time"

	"github.com/cabinet/backend/internal/domain/shared"
)

// DateLayout is the only layout accepted for persisted dates
const DateLayout = "02/01/2006"

// datePattern gates parsing before time.Parse runs, so that lenient layouts
// (or an ambiguous MM/DD/YYYY string) can never slip through.
var datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// ParseDate parses a persisted DD/MM/YYYY date string. Strings that do not
// match the pattern exactly, or name an impossible calendar day, yield
// shared.ErrUnparseableDate.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, shared.ErrUnparseableDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, shared.ErrUnparseableDate
	}
	return t, nil
}

// FormatDate renders a date in the persisted DD/MM/YYYY form
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AttestationValidityEnd derives the validity end date from an attestation
// creation date: creation + 3 calendar months. Callers are responsible for
// writing the derived value; the evaluator never enforces the invariant.
func AttestationValidityEnd(creationDate string) (string, error) {
	t, err := ParseDate(creationDate)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, AttestationValidityMonths, 0)), nil
}

// Evaluation classifies a deadline relative to a reference day
type Evaluation struct {
	DaysRemaining int  `json:"days_remaining"` // signed; negative means overdue
	IsExpired     bool `json:"is_expired"`
	IsUrgent      bool `json:"is_urgent"`
}

// midnightUTC strips the time-of-day component so that day differences are
// exact 24h multiples regardless of the inputs' clocks or zones.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed calendar-day difference deadline - today,
// with both instants truncated to midnight first.
func DaysBetween(deadline, today time.Time) int {
	return int(midnightUTC(deadline).Sub(midnightUTC(today)) / (24 * time.Hour))
}

// EvaluateDeadline computes days remaining until a deadline and classifies it.
// The urgency window is context-dependent and always supplied by the caller
// (see DefaultAttestationWindow, DefaultBannerWindow, DefaultTaxWindow).
func EvaluateDeadline(deadline, today time.Time, window int) Evaluation {
	days := DaysBetween(deadline, today)
	return Evaluation{
		DaysRemaining: days,
		IsExpired:     days < 0,
		IsUrgent:      days >= 0 && days <= window,
	}
}
