package fiscal

import (
	"context"
	"fmt"

	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BulkReport summarizes a bulk refresh run
type BulkReport struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BulkProgress is called after each client is processed
type BulkProgress func(processed, total int, clientID uuid.UUID, ok bool)

// verificationError reports a write that persisted without error but whose
// re-read did not contain the expected data.
type verificationError struct {
	clientID uuid.UUID
	year     string
}

func (e *verificationError) Error() string {
	if e.year != "" {
		return fmt.Sprintf("write verification failed for client %s: year %s missing after persist", e.clientID, e.year)
	}
	return fmt.Sprintf("write verification failed for client %s: attestation missing after persist", e.clientID)
}

func verificationMismatch(clientID uuid.UUID, year string) error {
	return &verificationError{clientID: clientID, year: year}
}

// BulkRefresh recomputes the derived attestation fields for every listed
// client and persists each document through the retry protocol. Clients are
// processed strictly one at a time with a fixed pause between writes to
// avoid hammering the store.
//
// All local view caches are cleared before the first write so no stale view
// survives the run. One client's failure never aborts the batch; the report
// carries per-client outcomes. The cross-instance invalidation broadcast
// fires exactly once, after the whole batch.
func (g *Gateway) BulkRefresh(ctx context.Context, clientIDs []uuid.UUID, progress BulkProgress) BulkReport {
	ctx, span := telemetry.Tracer("application/fiscal").Start(ctx, "fiscal.bulk_refresh",
		trace.WithAttributes(attribute.Int("fiscal.clients", len(clientIDs))))
	defer span.End()

	report := BulkReport{Total: len(clientIDs)}

	g.caches.InvalidateAll()

	for idx, id := range clientIDs {
		if idx > 0 {
			if err := g.sleep(ctx, g.bulkDelay); err != nil {
				report.Failed = report.Total - report.Successful
				g.logger.Warn("Bulk refresh aborted",
					zap.Int("processed", idx),
					zap.Int("total", report.Total),
					zap.Error(err))
				g.finishBulk(ctx, report)
				return report
			}
		}

		ok := g.refreshOne(ctx, id)
		if ok {
			report.Successful++
		} else {
			report.Failed++
		}

		if progress != nil {
			progress(idx+1, report.Total, id, ok)
		}
	}

	g.finishBulk(ctx, report)
	return report
}

// refreshOne rebuilds one client's derived fiscal fields and saves them
// without touching caches; BulkRefresh batches the invalidation.
func (g *Gateway) refreshOne(ctx context.Context, clientID uuid.UUID) bool {
	patch, err := g.refreshPatch(ctx, clientID)
	if err != nil {
		g.logger.Warn("Bulk refresh skipped client",
			zap.String("client_id", clientID.String()),
			zap.Error(err))
		return false
	}
	return g.saveWithRetry(ctx, clientID, patch, g.maxRetries)
}

// refreshPatch derives the fields a refresh recomputes. Today that is the
// attestation validity end, re-derived from the creation date.
func (g *Gateway) refreshPatch(ctx context.Context, clientID uuid.UUID) (fiscal.FiscalDataPatch, error) {
	data, err := g.repo.GetFiscalData(ctx, clientID)
	if err != nil {
		return fiscal.FiscalDataPatch{}, err
	}

	var patch fiscal.FiscalDataPatch
	if data.Attestation != nil && data.Attestation.CreationDate != "" {
		end, err := fiscal.AttestationValidityEnd(data.Attestation.CreationDate)
		if err != nil {
			return fiscal.FiscalDataPatch{}, err
		}
		refreshed := *data.Attestation
		refreshed.ValidityEndDate = end
		patch.Attestation = &refreshed
	}
	return patch, nil
}

func (g *Gateway) finishBulk(ctx context.Context, report BulkReport) {
	g.invalidate(ctx)
	g.logger.Info("Bulk fiscal refresh finished",
		zap.Int("total", report.Total),
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed))
}
