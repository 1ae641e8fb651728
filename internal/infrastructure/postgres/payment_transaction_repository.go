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

	"billfold/internal/domain/money"
	"billfold/internal/domain/payment"
)

const uniqueViolation = "23505"

// PaymentTransactionRepository implements payment.Store. The table is
// append-only; settlement updates are the only mutation and are guarded by
// the updated_at marker.
type PaymentTransactionRepository struct {
	db *DB
}

func NewPaymentTransactionRepository(db *DB) *PaymentTransactionRepository {
	return &PaymentTransactionRepository{db: db}
}

const transactionColumns = `
	id, external_key, payment_id, transaction_type, effective_date, status,
	amount, currency, processed_amount, processed_currency,
	gateway_error_code, gateway_error_msg, created_at, updated_at
`

func (r *PaymentTransactionRepository) Create(ctx context.Context, params payment.CreateParams) (*payment.Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	rec := payment.NewTransaction(params)

	query := `
		INSERT INTO payment_transactions (
			id, external_key, payment_id, transaction_type, effective_date,
			status, amount, currency
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + transactionColumns

	row := r.db.QueryRowContext(
		ctx, query,
		rec.ID, rec.ExternalKey, rec.PaymentID, string(rec.Type), rec.EffectiveDate,
		string(rec.Status), rec.Amount.Amount.String(), rec.Amount.Currency,
	)

	tx, err := scanTransaction(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, payment.ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

func (r *PaymentTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (r *PaymentTransactionRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*payment.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE payment_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*payment.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func (r *PaymentTransactionRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, update payment.SettlementUpdate) (*payment.Transaction, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !payment.ValidTransition(current.Status, update.Status) {
		return nil, payment.ErrInvalidTransition
	}

	var processedAmount, processedCurrency sql.NullString
	if update.Processed != nil {
		processedAmount = sql.NullString{String: update.Processed.Amount.String(), Valid: true}
		processedCurrency = sql.NullString{String: update.Processed.Currency, Valid: true}
	}

	query := `
		UPDATE payment_transactions
		SET status = $1,
		    processed_amount = $2,
		    processed_currency = $3,
		    gateway_error_code = $4,
		    gateway_error_msg = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $6 AND updated_at = $7
		RETURNING ` + transactionColumns

	row := r.db.QueryRowContext(
		ctx, query,
		string(update.Status), processedAmount, processedCurrency,
		update.GatewayErrorCode, update.GatewayErrorMsg,
		id, update.ExpectedUpdatedAt,
	)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		// The row exists (read above), so the marker is stale: another
		// settlement callback won the race.
		return nil, payment.ErrConcurrentModification
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update settlement: %w", err)
	}
	return tx, nil
}

// scanner covers both *sql.Rows and the traced row wrapper.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*payment.Transaction, error) {
	var (
		tx                payment.Transaction
		txType, status    string
		amount, currency  string
		processedAmount   sql.NullString
		processedCurrency sql.NullString
		gatewayCode       sql.NullString
		gatewayMsg        sql.NullString
		effectiveDate     time.Time
	)

	err := s.Scan(
		&tx.ID, &tx.ExternalKey, &tx.PaymentID, &txType, &effectiveDate, &status,
		&amount, &currency, &processedAmount, &processedCurrency,
		&gatewayCode, &gatewayMsg, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Type = payment.TransactionType(txType)
	tx.EffectiveDate = effectiveDate
	tx.Status = payment.TransactionStatus(status)

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	tx.Amount = money.New(amt, currency)

	if processedAmount.Valid != processedCurrency.Valid {
		return nil, fmt.Errorf("transaction %s has unpaired processed amount/currency", tx.ID)
	}
	if processedAmount.Valid {
		pAmt, err := decimal.NewFromString(processedAmount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored processed amount %q: %w", processedAmount.String, err)
		}
		processed := money.New(pAmt, processedCurrency.String)
		tx.Processed = &processed
	}

	if gatewayCode.Valid {
		tx.GatewayErrorCode = &gatewayCode.String
	}
	if gatewayMsg.Valid {
		tx.GatewayErrorMsg = &gatewayMsg.String
	}

	return &tx, nil
}
