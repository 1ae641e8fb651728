package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"billfold/internal/domain/tag"
)

// TagRepository implements tag.Service over the invoice_tags table. Both set
// and clear are idempotent; only tagging an unknown invoice is an error.
type TagRepository struct {
	db *DB
}

func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) SetTag(ctx context.Context, invoiceID uuid.UUID, kind tag.Kind) error {
	if err := r.checkInvoice(ctx, invoiceID); err != nil {
		return err
	}

	query := `
		INSERT INTO invoice_tags (invoice_id, kind)
		VALUES ($1, $2)
		ON CONFLICT (invoice_id, kind) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, invoiceID, string(kind)); err != nil {
		return fmt.Errorf("failed to set tag: %w", err)
	}
	return nil
}

func (r *TagRepository) ClearTag(ctx context.Context, invoiceID uuid.UUID, kind tag.Kind) error {
	if err := r.checkInvoice(ctx, invoiceID); err != nil {
		return err
	}

	query := `DELETE FROM invoice_tags WHERE invoice_id = $1 AND kind = $2`
	if _, err := r.db.ExecContext(ctx, query, invoiceID, string(kind)); err != nil {
		return fmt.Errorf("failed to clear tag: %w", err)
	}
	return nil
}

func (r *TagRepository) HasTag(ctx context.Context, invoiceID uuid.UUID, kind tag.Kind) (bool, error) {
	var has bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM invoice_tags WHERE invoice_id = $1 AND kind = $2)`,
		invoiceID, string(kind),
	).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("failed to check tag: %w", err)
	}
	return has, nil
}

func (r *TagRepository) checkInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM invoices WHERE id = $1)`, invoiceID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check invoice: %w", err)
	}
	if !exists {
		return tag.ErrInvoiceNotFound
	}
	return nil
}
