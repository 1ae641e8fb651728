package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"billfold/internal/domain/invoice"
	"billfold/internal/domain/money"
	"billfold/internal/domain/tag"
)

// InvoiceRepository implements invoice.Repository. Credit items are stored
// with a negated amount so that summing item amounts yields the charge total
// directly.
type InvoiceRepository struct {
	db *DB
}

func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

var invoiceColumns = `
	i.id, i.account_id, i.invoice_date, i.target_date, i.currency, i.created_at,
	EXISTS(
		SELECT 1 FROM invoice_tags t
		WHERE t.invoice_id = i.id AND t.kind = '` + string(tag.KindWrittenOff) + `'
	) AS written_off,
	COALESCE((
		SELECT SUM(p.amount) FROM invoice_payments p
		WHERE p.invoice_id = i.id AND p.success
	), 0) AS amount_paid
`

func (r *InvoiceRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, from *time.Time) ([]*invoice.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices i
		WHERE i.account_id = $1 AND ($2::timestamptz IS NULL OR i.invoice_date >= $2)
		ORDER BY i.invoice_date ASC, i.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*invoice.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	if err := r.attachItems(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *InvoiceRepository) ListUnpaidByAccount(ctx context.Context, accountID uuid.UUID, upTo time.Time) ([]*invoice.Invoice, error) {
	all, err := r.ListByAccount(ctx, accountID, nil)
	if err != nil {
		return nil, err
	}

	unpaid := []*invoice.Invoice{}
	for _, inv := range all {
		if inv.WrittenOff || inv.TargetDate.After(upTo) {
			continue
		}
		if inv.Balance().IsPositive() {
			unpaid = append(unpaid, inv)
		}
	}
	return unpaid, nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices i WHERE i.id = $1`

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if err := r.attachItems(ctx, []*invoice.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// AccountBalance sums outstanding invoice balances and floating credits.
// Written-off invoices are excluded. ok is false when the account has no
// invoices and no floating credits at all.
func (r *InvoiceRepository) AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, bool, error) {
	invoices, err := r.ListByAccount(ctx, accountID, nil)
	if err != nil {
		return decimal.Zero, false, err
	}

	floating, err := r.floatingCredits(ctx, accountID)
	if err != nil {
		return decimal.Zero, false, err
	}

	if len(invoices) == 0 && len(floating) == 0 {
		return decimal.Zero, false, nil
	}

	balance := decimal.Zero
	for _, inv := range invoices {
		if inv.WrittenOff {
			continue
		}
		balance = balance.Add(inv.Balance())
	}
	for _, item := range floating {
		// Stored negated, so adding reduces the balance.
		balance = balance.Add(item.Amount.Amount)
	}
	return balance, true, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (id, account_id, invoice_date, target_date, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, inv.ID, inv.AccountID, inv.InvoiceDate, inv.TargetDate, inv.Currency, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoice_items (id, invoice_id, account_id, type, description, amount, currency, effective_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, item.ID, item.InvoiceID, item.AccountID, string(item.Type), item.Description,
			item.Amount.Amount.String(), item.Amount.Currency, item.EffectiveDate, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE account_id = $1`, accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

func (r *InvoiceRepository) InsertCredit(ctx context.Context, params invoice.InsertCreditParams) (*invoice.Item, error) {
	if params.InvoiceID != nil {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM invoices WHERE id = $1)`, *params.InvoiceID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check invoice: %w", err)
		}
		if !exists {
			return nil, &invoice.APIError{Code: invoice.CodeInvoiceNotFound, InvoiceID: *params.InvoiceID}
		}
	}

	// Credits are requested positive and stored negated.
	stored := params.Amount.Amount.Neg()

	query := `
		INSERT INTO invoice_items (id, invoice_id, account_id, type, description, amount, currency, effective_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, invoice_id, account_id, type, description, amount, currency, effective_date, created_at
	`
	row := r.db.QueryRowContext(
		ctx, query,
		uuid.New(), params.InvoiceID, params.AccountID, string(invoice.ItemCredit),
		"Account credit", stored.String(), params.Amount.Currency, params.EffectiveDate,
	)

	item, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert credit: %w", err)
	}
	return creditView(item), nil
}

// creditView flips a stored credit item back to the caller-facing sign.
// Items embedded in invoices keep the stored negative amount so item sums
// stay balances; credits read on their own report the requested amount.
func creditView(item *invoice.Item) *invoice.Item {
	item.Amount = money.New(item.Amount.Amount.Neg(), item.Amount.Currency)
	return item
}

func (r *InvoiceRepository) GetCreditByID(ctx context.Context, creditID uuid.UUID) (*invoice.Item, error) {
	query := `
		SELECT id, invoice_id, account_id, type, description, amount, currency, effective_date, created_at
		FROM invoice_items
		WHERE id = $1 AND type = $2
	`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, creditID, string(invoice.ItemCredit)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit: %w", err)
	}
	return creditView(item), nil
}

func (r *InvoiceRepository) RecordPayment(ctx context.Context, p *invoice.Payment) error {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoice_payments (id, invoice_id, payment_id, amount, currency, payment_date, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, p.InvoiceID, p.PaymentID, p.Amount.Amount.String(), p.Amount.Currency, p.PaymentDate, p.Success)
	if err != nil {
		return fmt.Errorf("failed to record invoice payment: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) ListBillableAccounts(ctx context.Context) ([]uuid.UUID, error) {
	// Accounts with active subscriptions but no invoices yet still need a
	// first generation run.
	query := `
		SELECT account_id FROM subscriptions WHERE active = TRUE
		UNION
		SELECT account_id FROM invoices
		ORDER BY account_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list billable accounts: %w", err)
	}
	defer rows.Close()

	accounts := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		accounts = append(accounts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// attachItems loads the items for the given invoices in one query.
func (r *InvoiceRepository) attachItems(ctx context.Context, invoices []*invoice.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(invoices))
	byID := make(map[uuid.UUID]*invoice.Invoice, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
		byID[inv.ID] = inv
		inv.Items = []invoice.Item{}
	}

	query := `
		SELECT id, invoice_id, account_id, type, description, amount, currency, effective_date, created_at
		FROM invoice_items
		WHERE invoice_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to list invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if inv, ok := byID[*item.InvoiceID]; ok {
			inv.Items = append(inv.Items, *item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating invoice items: %w", err)
	}
	return nil
}

// floatingCredits returns credit items not bound to any invoice.
func (r *InvoiceRepository) floatingCredits(ctx context.Context, accountID uuid.UUID) ([]*invoice.Item, error) {
	query := `
		SELECT id, invoice_id, account_id, type, description, amount, currency, effective_date, created_at
		FROM invoice_items
		WHERE account_id = $1 AND invoice_id IS NULL AND type = $2
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, string(invoice.ItemCredit))
	if err != nil {
		return nil, fmt.Errorf("failed to list floating credits: %w", err)
	}
	defer rows.Close()

	items := []*invoice.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan floating credit: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating floating credits: %w", err)
	}
	return items, nil
}

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var (
		inv        invoice.Invoice
		amountPaid string
	)
	err := s.Scan(
		&inv.ID, &inv.AccountID, &inv.InvoiceDate, &inv.TargetDate, &inv.Currency,
		&inv.CreatedAt, &inv.WrittenOff, &amountPaid,
	)
	if err != nil {
		return nil, err
	}

	paid, err := decimal.NewFromString(amountPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount_paid %q: %w", amountPaid, err)
	}
	inv.AmountPaid = paid
	return &inv, nil
}

func scanItem(s scanner) (*invoice.Item, error) {
	var (
		item      invoice.Item
		invoiceID uuid.NullUUID
		itemType  string
		amount    string
		currency  string
	)
	err := s.Scan(
		&item.ID, &invoiceID, &item.AccountID, &itemType, &item.Description,
		&amount, &currency, &item.EffectiveDate, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if invoiceID.Valid {
		id := invoiceID.UUID
		item.InvoiceID = &id
	}
	item.Type = invoice.ItemType(itemType)

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored item amount %q: %w", amount, err)
	}
	item.Amount = money.New(amt, currency)
	return &item, nil
}
