package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/domain/shared"
	"github.com/cabinet/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// ViewService serves the recurring back-office question "which clients still
// owe X" from per-obligation-type cache slots. Each slot re-scans the client
// base on demand and stays fresh for the configured TTL; a write anywhere in
// the fiscal gateway invalidates every slot through the shared manager.
type ViewService struct {
	repo        client.Repository
	logger      *zap.Logger
	now         func() time.Time
	outstanding map[fiscal.ObligationType]*cache.ViewCache[client.Client]
	expiring    *cache.ViewCache[client.Client]
}

// ViewServiceOption is a functional option for configuring the view service
type ViewServiceOption func(*viewServiceConfig)

type viewServiceConfig struct {
	ttl               time.Duration
	attestationWindow int
	logger            *zap.Logger
	now               func() time.Time
}

// WithViewTTL overrides the default slot TTL
func WithViewTTL(ttl time.Duration) ViewServiceOption {
	return func(c *viewServiceConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithAttestationWindow sets the expiring-attestation view window in days
func WithAttestationWindow(days int) ViewServiceOption {
	return func(c *viewServiceConfig) {
		if days > 0 {
			c.attestationWindow = days
		}
	}
}

// WithViewLogger sets the logger for the view service
func WithViewLogger(logger *zap.Logger) ViewServiceOption {
	return func(c *viewServiceConfig) {
		c.logger = logger
	}
}

// WithViewClock injects the time source, for tests
func WithViewClock(now func() time.Time) ViewServiceOption {
	return func(c *viewServiceConfig) {
		c.now = now
	}
}

// NewViewService builds one cache slot per obligation type plus the
// expiring-attestation slot, and registers them all with the manager so
// InvalidateAll reaches every view.
func NewViewService(repo client.Repository, manager *cache.Manager, opts ...ViewServiceOption) *ViewService {
	cfg := viewServiceConfig{
		ttl:               cache.DefaultViewTTL,
		attestationWindow: fiscal.DefaultAttestationWindow,
		logger:            zap.NewNop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &ViewService{
		repo:        repo,
		logger:      cfg.logger,
		now:         cfg.now,
		outstanding: make(map[fiscal.ObligationType]*cache.ViewCache[client.Client]),
	}

	for _, t := range fiscal.AllObligationTypes() {
		t := t
		slot := cache.NewViewCache(
			fmt.Sprintf("outstanding:%s", t),
			func(ctx context.Context) ([]client.Client, error) {
				return s.scanOutstanding(ctx, t)
			},
			cache.WithTTL[client.Client](cfg.ttl),
			cache.WithLogger[client.Client](cfg.logger),
			cache.WithClock[client.Client](cfg.now),
		)
		s.outstanding[t] = slot
		manager.Register(slot)
	}

	s.expiring = cache.NewViewCache(
		"attestations:expiring",
		func(ctx context.Context) ([]client.Client, error) {
			return s.scanExpiring(ctx, cfg.attestationWindow)
		},
		cache.WithTTL[client.Client](cfg.ttl),
		cache.WithLogger[client.Client](cfg.logger),
		cache.WithClock[client.Client](cfg.now),
	)
	manager.Register(s.expiring)

	return s
}

// OutstandingClients returns the clients that still owe the given obligation
// for their active fiscal year. With force true the cache TTL is bypassed.
//
// A scan failure on a never-populated slot surfaces as an empty list, not an
// error: the views are advisory and the UI must keep working.
func (s *ViewService) OutstandingClients(ctx context.Context, t fiscal.ObligationType, force bool) ([]client.Client, bool, error) {
	if !t.Valid() {
		return nil, false, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown obligation type: %s", t))
	}

	slot := s.outstanding[t]
	data, err := slot.Get(ctx, force)
	if err != nil {
		s.logger.Warn("Outstanding view unavailable",
			zap.String("obligation", string(t)),
			zap.Error(err))
		return []client.Client{}, false, nil
	}
	return data, slot.Degraded(), nil
}

// ExpiringAttestations returns the clients whose attestation expires within
// the configured window, including already-expired ones.
func (s *ViewService) ExpiringAttestations(ctx context.Context, force bool) ([]client.Client, bool, error) {
	data, err := s.expiring.Get(ctx, force)
	if err != nil {
		s.logger.Warn("Expiring-attestation view unavailable", zap.Error(err))
		return []client.Client{}, false, nil
	}
	return data, s.expiring.Degraded(), nil
}

func (s *ViewService) scanOutstanding(ctx context.Context, t fiscal.ObligationType) ([]client.Client, error) {
	clients, err := s.repo.FindAll(ctx, shared.Filter{})
	if err != nil {
		return nil, err
	}

	today := s.now()
	matched := make([]client.Client, 0)
	for _, c := range clients {
		data := c.FiscalData
		if data == nil || data.HiddenFromDashboard {
			continue
		}
		status, present := data.YearStatus(data.ActiveYear(today))[t]
		if present && status.Outstanding(t) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (s *ViewService) scanExpiring(ctx context.Context, window int) ([]client.Client, error) {
	clients, err := s.repo.FindAll(ctx, shared.Filter{})
	if err != nil {
		return nil, err
	}

	today := s.now()
	matched := make([]client.Client, 0)
	for _, c := range clients {
		data := c.FiscalData
		if data == nil || data.HiddenFromDashboard {
			continue
		}
		att := data.Attestation
		if att == nil || att.ValidityEndDate == "" || !att.Visible() {
			continue
		}
		deadline, err := fiscal.ParseDate(att.ValidityEndDate)
		if err != nil {
			s.logger.Warn("Skipping attestation with unparseable validity end date",
				zap.String("client_id", c.ID.String()),
				zap.String("validity_end_date", att.ValidityEndDate))
			continue
		}
		if fiscal.EvaluateDeadline(deadline, today, window).DaysRemaining <= window {
			matched = append(matched, c)
		}
	}
	return matched, nil
}
