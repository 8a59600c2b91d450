package fiscal

import (
	"context"
	"time"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ComplianceService produces the dashboard report and attestation alerts by
// running the pure aggregator over the full client base.
type ComplianceService struct {
	repo   client.Repository
	logger *zap.Logger
	now    func() time.Time
	opts   fiscal.AggregateOptions
}

// ComplianceServiceOption is a functional option for configuring the service
type ComplianceServiceOption func(*ComplianceService)

// WithComplianceWindows overrides the default urgency windows
func WithComplianceWindows(attestationDays, taxDays int) ComplianceServiceOption {
	return func(s *ComplianceService) {
		if attestationDays > 0 {
			s.opts.AttestationWindow = attestationDays
		}
		if taxDays > 0 {
			s.opts.TaxWindow = taxDays
		}
	}
}

// WithComplianceLogger sets the logger for the service
func WithComplianceLogger(logger *zap.Logger) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.logger = logger
	}
}

// WithComplianceClock injects the time source, for tests
func WithComplianceClock(now func() time.Time) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.now = now
	}
}

// NewComplianceService creates a compliance service
func NewComplianceService(repo client.Repository, opts ...ComplianceServiceOption) *ComplianceService {
	s := &ComplianceService{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
		opts:   fiscal.DefaultAggregateOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard aggregates every client into the full compliance report.
// A repository failure degrades to an empty report with a logged error; the
// dashboard renders empty rather than failing.
func (s *ComplianceService) Dashboard(ctx context.Context) fiscal.Report {
	records, err := s.records(ctx)
	if err != nil {
		s.logger.Error("Compliance aggregation unavailable", zap.Error(err))
		return fiscal.Report{
			Alerts:      []fiscal.Alert{},
			Obligations: []fiscal.ObligationRow{},
		}
	}
	return fiscal.Aggregate(records, s.now(), s.opts, s.logger)
}

// Alerts returns only the attestation-expiry alerts, evaluated against the
// given window. A non-positive window falls back to the configured default.
func (s *ComplianceService) Alerts(ctx context.Context, window int) []fiscal.Alert {
	opts := s.opts
	if window > 0 {
		opts.AttestationWindow = window
	}

	records, err := s.records(ctx)
	if err != nil {
		s.logger.Error("Compliance aggregation unavailable", zap.Error(err))
		return []fiscal.Alert{}
	}
	return fiscal.Aggregate(records, s.now(), opts, s.logger).Alerts
}

func (s *ComplianceService) records(ctx context.Context) ([]fiscal.ClientRecord, error) {
	clients, err := s.repo.FindAll(ctx, shared.Filter{})
	if err != nil {
		return nil, err
	}

	records := make([]fiscal.ClientRecord, 0, len(clients))
	for i := range clients {
		records = append(records, clients[i].FiscalRecord())
	}
	return records, nil
}
