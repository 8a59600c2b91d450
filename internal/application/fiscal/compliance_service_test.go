package fiscal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func januaryClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	}
}

func TestComplianceDashboard(t *testing.T) {
	repo := newFakeRepo()
	repo.clients = []client.Client{
		testClient(t, "Owes", &fiscal.FiscalData{
			Attestation: &fiscal.Attestation{ValidityEndDate: "15/01/2025"},
			Obligations: map[string]fiscal.YearObligations{
				"2025": {fiscal.ObligationIGS: {Assujetti: true}},
			},
		}),
		testClient(t, "Clean", &fiscal.FiscalData{
			Obligations: map[string]fiscal.YearObligations{
				"2025": {fiscal.ObligationIGS: {Assujetti: true, Paye: true}},
			},
		}),
	}
	svc := NewComplianceService(repo, WithComplianceClock(januaryClock()))

	report := svc.Dashboard(context.Background())

	require.Len(t, report.Alerts, 1)
	assert.Equal(t, "Owes", report.Alerts[0].ClientName)
	assert.Equal(t, 5, report.Alerts[0].DaysRemaining)

	require.Len(t, report.Obligations, 1)
	assert.Equal(t, fiscal.ObligationIGS, report.Obligations[0].Type)
	assert.True(t, report.Obligations[0].IsUrgent)
}

func TestComplianceDashboardDegradesToEmpty(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("store unreachable")
	svc := NewComplianceService(repo, WithComplianceClock(januaryClock()))

	report := svc.Dashboard(context.Background())

	assert.NotNil(t, report.Alerts)
	assert.Empty(t, report.Alerts)
	assert.NotNil(t, report.Obligations)
	assert.Empty(t, report.Obligations)
}

func TestComplianceAlertsWindow(t *testing.T) {
	repo := newFakeRepo()
	repo.clients = []client.Client{
		testClient(t, "Soon", &fiscal.FiscalData{
			Attestation: &fiscal.Attestation{ValidityEndDate: "15/01/2025"}, // +5 days
		}),
		testClient(t, "Later", &fiscal.FiscalData{
			Attestation: &fiscal.Attestation{ValidityEndDate: "30/01/2025"}, // +20 days
		}),
	}
	svc := NewComplianceService(repo, WithComplianceClock(januaryClock()))

	t.Run("narrow window trims the list", func(t *testing.T) {
		alerts := svc.Alerts(context.Background(), 7)
		require.Len(t, alerts, 1)
		assert.Equal(t, "Soon", alerts[0].ClientName)
	})

	t.Run("non-positive window falls back to the default", func(t *testing.T) {
		alerts := svc.Alerts(context.Background(), 0)
		assert.Len(t, alerts, 2)
	})
}
