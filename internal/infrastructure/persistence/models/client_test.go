package models

import (
	"testing"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientModelRoundTrip(t *testing.T) {
	c, err := client.NewClient("AB01", "Boulangerie Ngono", client.ClientTypeOrganization)
	require.NoError(t, err)
	require.NoError(t, c.SetContact("Marie Ekani", "+237 699 00 11 22", "marie@example.cm"))
	c.SetFiscalData(&fiscal.FiscalData{
		SelectedYear: "2025",
		Obligations: map[string]fiscal.YearObligations{
			"2025": {fiscal.ObligationIGS: {Assujetti: true, Paye: true}},
		},
	})

	var model ClientModel
	require.NoError(t, model.FromDomain(c))
	assert.NotEmpty(t, model.FiscalData, "fiscal document serialized to jsonb")

	restored, err := model.ToDomain()
	require.NoError(t, err)

	assert.Equal(t, c.ID, restored.ID)
	assert.Equal(t, "AB01", restored.Code)
	assert.Equal(t, "Boulangerie Ngono", restored.Name)
	assert.Equal(t, client.ClientTypeOrganization, restored.Type)
	assert.Equal(t, "marie@example.cm", restored.Email)

	require.NotNil(t, restored.FiscalData)
	assert.True(t, restored.FiscalData.Obligations["2025"][fiscal.ObligationIGS].Paye)
}

func TestClientModelWithoutFiscalData(t *testing.T) {
	c, err := client.NewClient("AB02", "Sans Dossier", client.ClientTypeIndividual)
	require.NoError(t, err)

	var model ClientModel
	require.NoError(t, model.FromDomain(c))
	assert.Nil(t, model.FiscalData)

	restored, err := model.ToDomain()
	require.NoError(t, err)
	assert.Nil(t, restored.FiscalData)
}

func TestClientModelNormalizesLegacyDocuments(t *testing.T) {
	model := ClientModel{
		Code: "AB03",
		Name: "Legacy",
		Type: client.ClientTypeOrganization,
		FiscalData: []byte(`{
			"selectedYear": "2024",
			"igs": {"assujetti": true, "paye": true}
		}`),
	}

	restored, err := model.ToDomain()
	require.NoError(t, err)

	require.NotNil(t, restored.FiscalData)
	assert.Nil(t, restored.FiscalData.LegacyIGS, "legacy top-level field folded away")
	assert.True(t, restored.FiscalData.Obligations["2024"][fiscal.ObligationIGS].Paye)
}

func TestClientModelRejectsCorruptDocuments(t *testing.T) {
	model := ClientModel{
		Code:       "AB04",
		Name:       "Broken",
		Type:       client.ClientTypeIndividual,
		FiscalData: []byte(`{not json`),
	}

	_, err := model.ToDomain()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt fiscal document")
}
