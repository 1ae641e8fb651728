package account

import (
	"context"

	"github.com/google/uuid"
)

// Directory resolves accounts. It is owned by the platform's account
// service; the billing core only reads through it.
type Directory interface {
	// GetByID returns (nil, nil) when the account is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
}
