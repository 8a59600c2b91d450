package fiscal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default urgency windows, in days. These are defaults for callers; the
// evaluator itself never assumes a window.
const (
	DefaultAttestationWindow = 30 // attestation-expiry dashboard
	DefaultBannerWindow      = 5  // blocking alert banner
	DefaultTaxWindow         = 10 // generic tax-obligation deadlines
)

// AttestationValidityMonths is the fixed validity of a tax-compliance
// attestation, counted from its creation date.
const AttestationValidityMonths = 3

// Rule describes the statutory parameters of one obligation type: its label
// for display, its completion category and the fixed day/month of its legal
// deadline within the fiscal year.
type Rule struct {
	Type          ObligationType
	Label         string
	Category      ObligationCategory
	DeadlineDay   int
	DeadlineMonth time.Month
}

// rules is the static obligation rule table, keyed by type.
var rules = map[ObligationType]Rule{
	ObligationPatente: {
		Type: ObligationPatente, Label: "Patente",
		Category: CategoryTax, DeadlineDay: 28, DeadlineMonth: time.February,
	},
	ObligationBail: {
		Type: ObligationBail, Label: "Bail commercial",
		Category: CategoryTax, DeadlineDay: 15, DeadlineMonth: time.January,
	},
	ObligationTaxeFonciere: {
		Type: ObligationTaxeFonciere, Label: "Taxe foncière",
		Category: CategoryTax, DeadlineDay: 15, DeadlineMonth: time.March,
	},
	ObligationIGS: {
		Type: ObligationIGS, Label: "IGS",
		Category: CategoryTax, DeadlineDay: 15, DeadlineMonth: time.January,
	},
	ObligationDSF: {
		Type: ObligationDSF, Label: "DSF",
		Category: CategoryDeclaration, DeadlineDay: 15, DeadlineMonth: time.March,
	},
	ObligationDARP: {
		Type: ObligationDARP, Label: "DARP",
		Category: CategoryDeclaration, DeadlineDay: 31, DeadlineMonth: time.March,
	},
}

// RuleFor returns the rule table entry for the obligation type
func RuleFor(t ObligationType) (Rule, bool) {
	r, ok := rules[t]
	return r, ok
}

// Label returns the display label for the obligation type
func (t ObligationType) Label() string {
	if r, ok := rules[t]; ok {
		return r.Label
	}
	return string(t)
}

// DeadlineFor returns the statutory deadline of an obligation for a fiscal
// year, at midnight UTC.
func DeadlineFor(t ObligationType, year int) (time.Time, bool) {
	r, ok := rules[t]
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, r.DeadlineMonth, r.DeadlineDay, 0, 0, 0, 0, time.UTC), true
}

// igsBracket maps an annual-turnover upper bound (exclusive) to the IGS due.
// Amounts are CFA francs.
type igsBracket struct {
	upTo   decimal.Decimal
	amount decimal.Decimal
}

var igsBrackets = []igsBracket{
	{upTo: decimal.NewFromInt(500_000), amount: decimal.NewFromInt(20_000)},
	{upTo: decimal.NewFromInt(1_000_000), amount: decimal.NewFromInt(30_000)},
	{upTo: decimal.NewFromInt(1_500_000), amount: decimal.NewFromInt(40_000)},
	{upTo: decimal.NewFromInt(2_000_000), amount: decimal.NewFromInt(50_000)},
	{upTo: decimal.NewFromInt(2_500_000), amount: decimal.NewFromInt(60_000)},
	{upTo: decimal.NewFromInt(5_000_000), amount: decimal.NewFromInt(150_000)},
	{upTo: decimal.NewFromInt(10_000_000), amount: decimal.NewFromInt(300_000)},
	{upTo: decimal.NewFromInt(20_000_000), amount: decimal.NewFromInt(500_000)},
	{upTo: decimal.NewFromInt(30_000_000), amount: decimal.NewFromInt(1_000_000)},
	{upTo: decimal.NewFromInt(50_000_000), amount: decimal.NewFromInt(2_000_000)},
}

// IGSAmountFor returns the IGS amount owed for an annual turnover, and false
// when the turnover is negative or exceeds the simplified-regime ceiling
// (above which IGS no longer applies).
func IGSAmountFor(turnover decimal.Decimal) (decimal.Decimal, bool) {
	if turnover.IsNegative() {
		return decimal.Zero, false
	}
	for _, b := range igsBrackets {
		if turnover.LessThan(b.upTo) || turnover.Equal(b.upTo) {
			return b.amount, true
		}
	}
	return decimal.Zero, false
}
