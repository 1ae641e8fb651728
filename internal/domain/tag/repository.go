package tag

import (
	"context"

	"github.com/google/uuid"
)

// Service sets and clears status tags on invoices. Both operations are
// idempotent: re-tagging a tagged invoice and clearing an absent tag are
// no-ops. Tagging an unknown invoice fails with ErrInvoiceNotFound.
type Service interface {
	SetTag(ctx context.Context, invoiceID uuid.UUID, kind Kind) error
	ClearTag(ctx context.Context, invoiceID uuid.UUID, kind Kind) error
	HasTag(ctx context.Context, invoiceID uuid.UUID, kind Kind) (bool, error)
}
