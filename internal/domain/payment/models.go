package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"billfold/internal/domain/money"
)

// TransactionType classifies the monetary movement a transaction attempts.
type TransactionType string

const (
	TypeAuthorize TransactionType = "AUTHORIZE"
	TypeCapture   TransactionType = "CAPTURE"
	TypePurchase  TransactionType = "PURCHASE"
	TypeRefund    TransactionType = "REFUND"
	TypeCredit    TransactionType = "CREDIT"
	TypeVoid      TransactionType = "VOID"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeAuthorize, TypeCapture, TypePurchase, TypeRefund, TypeCredit, TypeVoid:
		return true
	}
	return false
}

// TransactionStatus is the settlement outcome reported by the gateway.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"
	StatusUnknown TransactionStatus = "UNKNOWN"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusUnknown:
		return true
	}
	return false
}

// IsTerminal reports whether the status is final. Terminal transactions
// cannot go back to PENDING; history is corrected by new records, not edits.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ValidTransition reports whether a settlement update may move a transaction
// from one status to another.
func ValidTransition(from, to TransactionStatus) bool {
	if from.IsTerminal() && to == StatusPending {
		return false
	}
	return true
}

// Transaction is a single monetary movement attempt belonging to a parent
// payment. Identity fields are immutable after creation; only the settlement
// outcome changes, exactly once per settlement attempt.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	ExternalKey   string            `json:"externalKey"`
	PaymentID     uuid.UUID         `json:"paymentId"`
	Type          TransactionType   `json:"transactionType"`
	EffectiveDate time.Time         `json:"effectiveDate"`
	Status        TransactionStatus `json:"status"`
	Amount        money.Money       `json:"amount"`

	// Processed carries both the amount and currency the gateway actually
	// moved. A single optional value keeps the two fields paired: they are
	// either both present or both absent.
	Processed *money.Money `json:"processed,omitempty"`

	GatewayErrorCode *string `json:"gatewayErrorCode,omitempty"`
	GatewayErrorMsg  *string `json:"gatewayErrorMsg,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Equal compares every field by value. Monetary amounts compare numerically,
// timestamps by instant. Used for idempotent reprocessing checks, not for
// storage identity.
func (t *Transaction) Equal(other *Transaction) bool {
	if other == nil {
		return false
	}
	if t.ID != other.ID ||
		t.ExternalKey != other.ExternalKey ||
		t.PaymentID != other.PaymentID ||
		t.Type != other.Type ||
		t.Status != other.Status {
		return false
	}
	if !t.EffectiveDate.Equal(other.EffectiveDate) {
		return false
	}
	if !t.Amount.Equal(other.Amount) {
		return false
	}
	if (t.Processed == nil) != (other.Processed == nil) {
		return false
	}
	if t.Processed != nil && !t.Processed.Equal(*other.Processed) {
		return false
	}
	if !equalStringPtr(t.GatewayErrorCode, other.GatewayErrorCode) {
		return false
	}
	if !equalStringPtr(t.GatewayErrorMsg, other.GatewayErrorMsg) {
		return false
	}
	if !t.CreatedAt.Equal(other.CreatedAt) || !t.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	return true
}

func equalStringPtr(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// CreateParams describes a transaction to record. ID and ExternalKey may be
// left empty; the store assigns an id and defaults the key to its string form.
type CreateParams struct {
	ID            uuid.UUID
	ExternalKey   string
	PaymentID     uuid.UUID
	Type          TransactionType
	EffectiveDate time.Time
	Amount        money.Money
}

// NewTransaction builds the record a create persists: a fresh id when none
// was supplied, the external key defaulted to the id's string form, and the
// PENDING initial status. Timestamps are left to the store.
func NewTransaction(p CreateParams) *Transaction {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.ExternalKey == "" {
		p.ExternalKey = p.ID.String()
	}
	return &Transaction{
		ID:            p.ID,
		ExternalKey:   p.ExternalKey,
		PaymentID:     p.PaymentID,
		Type:          p.Type,
		EffectiveDate: p.EffectiveDate,
		Status:        StatusPending,
		Amount:        p.Amount,
	}
}

func (p *CreateParams) Validate() error {
	if p.PaymentID == uuid.Nil {
		return errors.New("payment id is required")
	}
	if !p.Type.Valid() {
		return errors.New("invalid transaction type")
	}
	if p.EffectiveDate.IsZero() {
		return errors.New("effective date is required")
	}
	if p.Amount.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// SettlementUpdate is the single mutation a transaction admits after
// creation. ExpectedUpdatedAt is the optimistic-concurrency marker: it must
// match the record's current UpdatedAt or the update is rejected.
type SettlementUpdate struct {
	Status            TransactionStatus
	Processed         *money.Money
	GatewayErrorCode  *string
	GatewayErrorMsg   *string
	ExpectedUpdatedAt time.Time
}

func (u *SettlementUpdate) Validate() error {
	if !u.Status.Valid() {
		return errors.New("invalid transaction status")
	}
	switch u.Status {
	case StatusSuccess:
		if u.Processed == nil {
			return errors.New("successful settlement requires a processed amount")
		}
		if u.GatewayErrorCode != nil || u.GatewayErrorMsg != nil {
			return errors.New("successful settlement cannot carry gateway errors")
		}
	case StatusFailed:
		if u.GatewayErrorCode == nil {
			return errors.New("failed settlement requires a gateway error code")
		}
	}
	if u.ExpectedUpdatedAt.IsZero() {
		return errors.New("expected updated-at marker is required")
	}
	return nil
}
