package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"billfold/internal/domain/account"
)

// AccountRepository implements account.Directory over the platform's
// replicated accounts table. The billing core only reads from it.
type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, external_key, name, email, currency, bill_cycle_day, created_at
		FROM accounts
		WHERE id = $1
	`

	var a account.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ExternalKey, &a.Name, &a.Email, &a.Currency, &a.BillCycleDay, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}
