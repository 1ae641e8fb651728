package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billfold/internal/domain/money"
)

// InsertCreditParams binds a credit either to a specific invoice or, with a
// nil InvoiceID, to the account balance generically.
type InsertCreditParams struct {
	AccountID     uuid.UUID
	InvoiceID     *uuid.UUID
	Amount        money.Money
	EffectiveDate time.Time
}

// Repository defines the interface for invoice data access. Reads follow the
// convention of returning (nil, nil) when a single record is absent.
type Repository interface {
	// ListByAccount returns the account's invoices ordered by invoice date
	// ascending, optionally filtered to invoices on or after from. Never
	// returns nil.
	ListByAccount(ctx context.Context, accountID uuid.UUID, from *time.Time) ([]*Invoice, error)

	// ListUnpaidByAccount returns invoices with a positive balance up to and
	// including upTo.
	ListUnpaidByAccount(ctx context.Context, accountID uuid.UUID, upTo time.Time) ([]*Invoice, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// AccountBalance sums outstanding balances across the account's invoices
	// and floating credits. Returns (zero, false) when the account has no
	// balance data at all.
	AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, bool, error)

	// Create persists the invoice header and its items atomically.
	Create(ctx context.Context, inv *Invoice) error

	// CountByAccount returns the number of invoices recorded for the account.
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	InsertCredit(ctx context.Context, params InsertCreditParams) (*Item, error)
	GetCreditByID(ctx context.Context, creditID uuid.UUID) (*Item, error)

	// RecordPayment appends an invoice-payment attempt. Never updates or
	// deletes prior attempts.
	RecordPayment(ctx context.Context, p *Payment) error

	// ListBillableAccounts returns the distinct account ids known to the
	// invoice ledger. Feeds scheduled generation runs.
	ListBillableAccounts(ctx context.Context) ([]uuid.UUID, error)
}
