package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateKey means the external key already belongs to another
	// transaction. Callers retrying a logical request should treat this as
	// "already recorded" after comparing against the stored record.
	ErrDuplicateKey = errors.New("transaction external key already exists")

	// ErrInvalidTransition rejects moving a terminal settlement back to
	// PENDING. Financial history is append-only.
	ErrInvalidTransition = errors.New("invalid settlement status transition")

	// ErrConcurrentModification means another settlement callback updated the
	// record first. Retryable after re-reading the record.
	ErrConcurrentModification = errors.New("transaction modified concurrently")
)

// Store persists transaction records. Transactions are never deleted.
type Store interface {
	// Create records a new transaction. It assigns an id when the caller
	// supplied none and defaults ExternalKey to the id's string form.
	// Fails with ErrDuplicateKey when the external key is taken.
	Create(ctx context.Context, params CreateParams) (*Transaction, error)

	// GetByID fails with ErrNotFound when the id is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// ListByPayment returns the payment's full transaction history ordered by
	// creation time ascending. Never returns nil.
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*Transaction, error)

	// UpdateSettlement applies the settlement outcome. Fails with ErrNotFound,
	// ErrInvalidTransition, or ErrConcurrentModification when the
	// ExpectedUpdatedAt marker is stale.
	UpdateSettlement(ctx context.Context, id uuid.UUID, update SettlementUpdate) (*Transaction, error)
}
