package fiscal

import (
	"context"
	"time"

	"github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway defaults
const (
	DefaultMaxRetries  = 3
	DefaultBackoffStep = 1 * time.Second
	DefaultBulkDelay   = 500 * time.Millisecond
)

// Invalidator is the slice of the cache manager the write path needs
type Invalidator interface {
	InvalidateAll()
}

// Gateway persists partial fiscal-data updates with bounded retry and
// independent write verification. The backing store gives no read-after-write
// guarantee the application can rely on, so a write only counts once a
// separate re-read confirms it landed; both steps share one retry budget
// with linear backoff.
type Gateway struct {
	repo        client.Repository
	caches      Invalidator
	broadcaster cache.Broadcaster
	logger      *zap.Logger
	maxRetries  int
	backoffStep time.Duration
	bulkDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// GatewayOption is a functional option for configuring the gateway
type GatewayOption func(*Gateway)

// WithBroadcaster sets the cross-instance invalidation broadcaster
func WithBroadcaster(b cache.Broadcaster) GatewayOption {
	return func(g *Gateway) {
		g.broadcaster = b
	}
}

// WithMaxRetries sets the retry budget for save operations
func WithMaxRetries(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxRetries = n
		}
	}
}

// WithBackoffStep sets the linear backoff unit (wait = step * attempt)
func WithBackoffStep(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.backoffStep = d
		}
	}
}

// WithBulkDelay sets the inter-client delay for bulk updates
func WithBulkDelay(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d >= 0 {
			g.bulkDelay = d
		}
	}
}

// WithGatewayLogger sets the logger for the gateway
func WithGatewayLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// withSleep injects the sleep function, for tests
func withSleep(fn func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *Gateway) {
		g.sleep = fn
	}
}

// NewGateway creates a fiscal-data persistence gateway
func NewGateway(repo client.Repository, caches Invalidator, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		repo:        repo,
		caches:      caches,
		logger:      zap.NewNop(),
		maxRetries:  DefaultMaxRetries,
		backoffStep: DefaultBackoffStep,
		bulkDelay:   DefaultBulkDelay,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Save merges a partial fiscal-data update into the client's document,
// persists it and verifies the write, retrying up to the configured budget.
// On success every view cache is invalidated and the change is broadcast.
// Returns false after exhausting the budget; failures never propagate past
// this boundary as errors or panics.
func (g *Gateway) Save(ctx context.Context, clientID uuid.UUID, patch fiscal.FiscalDataPatch) bool {
	return g.SaveWithRetries(ctx, clientID, patch, g.maxRetries)
}

// SaveWithRetries is Save with an explicit retry budget
func (g *Gateway) SaveWithRetries(ctx context.Context, clientID uuid.UUID, patch fiscal.FiscalDataPatch, maxRetries int) bool {
	if !g.saveWithRetry(ctx, clientID, patch, maxRetries) {
		return false
	}
	g.invalidate(ctx)
	return true
}

// saveWithRetry runs the fetch -> merge -> persist -> verify protocol without
// touching caches, so the bulk path can batch its invalidation.
func (g *Gateway) saveWithRetry(ctx context.Context, clientID uuid.UUID, patch fiscal.FiscalDataPatch, maxRetries int) bool {
	if maxRetries <= 0 {
		maxRetries = g.maxRetries
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := g.attemptSave(ctx, clientID, patch); err == nil {
			if attempt > 1 {
				g.logger.Info("Fiscal data saved after retry",
					zap.String("client_id", clientID.String()),
					zap.Int("attempt", attempt))
			}
			return true
		} else {
			g.logger.Warn("Fiscal data save attempt failed",
				zap.String("client_id", clientID.String()),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Error(err))
		}

		if attempt < maxRetries {
			// Linear backoff: 1*step after the first failure, 2*step after
			// the second, and so on.
			if err := g.sleep(ctx, g.backoffStep*time.Duration(attempt)); err != nil {
				return false
			}
		}
	}
	return false
}

// attemptSave runs one full protocol round: fetch, merge, persist, verify
func (g *Gateway) attemptSave(ctx context.Context, clientID uuid.UUID, patch fiscal.FiscalDataPatch) error {
	existing, err := g.repo.GetFiscalData(ctx, clientID)
	if err != nil {
		return err
	}

	merged := existing.Apply(patch)

	if err := g.repo.PutFiscalData(ctx, clientID, &merged); err != nil {
		return err
	}

	return g.verify(ctx, clientID, patch)
}

// verify independently re-reads the document and confirms the write landed:
// every fiscal-year key the patch touched must now be present under
// obligations. A mismatch is treated exactly like a write failure.
func (g *Gateway) verify(ctx context.Context, clientID uuid.UUID, patch fiscal.FiscalDataPatch) error {
	stored, err := g.repo.GetFiscalData(ctx, clientID)
	if err != nil {
		return err
	}

	for _, year := range patch.YearKeys() {
		if len(stored.YearStatus(year)) == 0 {
			return verificationMismatch(clientID, year)
		}
	}
	if patch.Attestation != nil && stored.Attestation == nil {
		return verificationMismatch(clientID, "")
	}
	return nil
}

// InvalidateViews clears every local view cache and broadcasts the
// invalidation to other instances. Exposed for operator-triggered flushes.
func (g *Gateway) InvalidateViews(ctx context.Context) {
	g.invalidate(ctx)
}

func (g *Gateway) invalidate(ctx context.Context) {
	g.caches.InvalidateAll()
	if g.broadcaster != nil {
		if err := g.broadcaster.PublishInvalidateAll(ctx); err != nil {
			// Local caches are already clear; other instances will catch up
			// at their TTL boundary.
			g.logger.Warn("Failed to broadcast cache invalidation", zap.Error(err))
		}
	}
}
