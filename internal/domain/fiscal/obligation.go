package fiscal

// ObligationType identifies a recurring fiscal obligation tracked per fiscal year.
type ObligationType string

const (
	ObligationPatente      ObligationType = "patente"
	ObligationBail         ObligationType = "bail"
	ObligationTaxeFonciere ObligationType = "taxeFonciere"
	ObligationDSF          ObligationType = "dsf"
	ObligationDARP         ObligationType = "darp"
	ObligationIGS          ObligationType = "igs"
)

// ObligationCategory distinguishes tax payments from declaration filings
type ObligationCategory string

const (
	CategoryTax         ObligationCategory = "tax"         // completed by paying (paye)
	CategoryDeclaration ObligationCategory = "declaration" // completed by filing (depose)
)

// AllObligationTypes returns every tracked obligation type in display order.
// The order is stable so that aggregated views are deterministic.
func AllObligationTypes() []ObligationType {
	return []ObligationType{
		ObligationPatente,
		ObligationBail,
		ObligationTaxeFonciere,
		ObligationIGS,
		ObligationDSF,
		ObligationDARP,
	}
}

// Category returns the completion category for the obligation type
func (t ObligationType) Category() ObligationCategory {
	switch t {
	case ObligationDSF, ObligationDARP:
		return CategoryDeclaration
	default:
		return CategoryTax
	}
}

// Valid reports whether t is one of the known obligation types
func (t ObligationType) Valid() bool {
	switch t {
	case ObligationPatente, ObligationBail, ObligationTaxeFonciere,
		ObligationDSF, ObligationDARP, ObligationIGS:
		return true
	default:
		return false
	}
}

// ObligationStatus records where a client stands on one obligation for one
// fiscal year. Tax obligations use Paye as the completion flag, declaration
// obligations use Depose; omitempty keeps the persisted JSON shape of each
// variant to its meaningful fields.
type ObligationStatus struct {
	Assujetti bool `json:"assujetti"`
	Paye      bool `json:"paye,omitempty"`
	Depose    bool `json:"depose,omitempty"`
}

// Completed returns the completion flag appropriate for the obligation type
func (s ObligationStatus) Completed(t ObligationType) bool {
	if t.Category() == CategoryDeclaration {
		return s.Depose
	}
	return s.Paye
}

// Outstanding reports whether the obligation applies and is not yet completed.
// A client not subject to an obligation is never outstanding, whatever the
// completion flag says.
func (s ObligationStatus) Outstanding(t ObligationType) bool {
	return s.Assujetti && !s.Completed(t)
}
