package fiscal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObligationTypeCategory(t *testing.T) {
	assert.Equal(t, CategoryTax, ObligationPatente.Category())
	assert.Equal(t, CategoryTax, ObligationBail.Category())
	assert.Equal(t, CategoryTax, ObligationTaxeFonciere.Category())
	assert.Equal(t, CategoryTax, ObligationIGS.Category())
	assert.Equal(t, CategoryDeclaration, ObligationDSF.Category())
	assert.Equal(t, CategoryDeclaration, ObligationDARP.Category())
}

func TestObligationTypeValid(t *testing.T) {
	for _, typ := range AllObligationTypes() {
		assert.True(t, typ.Valid(), "type %s", typ)
	}
	assert.False(t, ObligationType("tva").Valid())
	assert.False(t, ObligationType("").Valid())
}

func TestObligationStatusCompleted(t *testing.T) {
	t.Run("tax obligations complete by payment", func(t *testing.T) {
		paid := ObligationStatus{Assujetti: true, Paye: true}
		filed := ObligationStatus{Assujetti: true, Depose: true}

		assert.True(t, paid.Completed(ObligationPatente))
		assert.False(t, filed.Completed(ObligationPatente))
	})

	t.Run("declarations complete by filing", func(t *testing.T) {
		paid := ObligationStatus{Assujetti: true, Paye: true}
		filed := ObligationStatus{Assujetti: true, Depose: true}

		assert.True(t, filed.Completed(ObligationDSF))
		assert.False(t, paid.Completed(ObligationDSF))
	})
}

func TestObligationStatusOutstanding(t *testing.T) {
	tests := []struct {
		name        string
		status      ObligationStatus
		typ         ObligationType
		outstanding bool
	}{
		{"subject and unpaid", ObligationStatus{Assujetti: true}, ObligationIGS, true},
		{"subject and paid", ObligationStatus{Assujetti: true, Paye: true}, ObligationIGS, false},
		{"not subject", ObligationStatus{}, ObligationIGS, false},
		{"not subject but paid anyway", ObligationStatus{Paye: true}, ObligationIGS, false},
		{"declaration subject and unfiled", ObligationStatus{Assujetti: true, Paye: true}, ObligationDARP, true},
		{"declaration filed", ObligationStatus{Assujetti: true, Depose: true}, ObligationDARP, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outstanding, tt.status.Outstanding(tt.typ))
		})
	}
}
