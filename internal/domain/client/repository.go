package client

import (
	"context"

	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the persistence operations for clients and their fiscal
// documents. The backing store offers no transactional read-after-write
// guarantee for the fiscal document; callers that need a confirmed write must
// re-read and verify (see the fiscal gateway).
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Client, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id uuid.UUID) error

	// GetFiscalData returns the client's fiscal document, normalized to the
	// canonical shape. A client without a document yields an empty document,
	// not an error.
	GetFiscalData(ctx context.Context, id uuid.UUID) (*fiscal.FiscalData, error)

	// PutFiscalData persists the document as a whole; the store has no
	// partial-document update primitive usable here.
	PutFiscalData(ctx context.Context, id uuid.UUID, data *fiscal.FiscalData) error
}
