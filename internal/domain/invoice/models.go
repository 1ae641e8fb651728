package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billfold/internal/domain/money"
)

// ItemType classifies an invoice line.
type ItemType string

const (
	ItemRecurring ItemType = "RECURRING"
	ItemFixed     ItemType = "FIXED"
	ItemCredit    ItemType = "CREDIT"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemRecurring, ItemFixed, ItemCredit:
		return true
	}
	return false
}

// Item is a single invoice line. A CREDIT item may float against the account
// balance without an owning invoice, in which case InvoiceID is nil.
type Item struct {
	ID            uuid.UUID   `json:"id"`
	InvoiceID     *uuid.UUID  `json:"invoiceId,omitempty"`
	AccountID     uuid.UUID   `json:"accountId"`
	Type          ItemType    `json:"type"`
	Description   string      `json:"description"`
	Amount        money.Money `json:"amount"`
	EffectiveDate time.Time   `json:"effectiveDate"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Invoice is a materialized set of charges for an account as of a target
// date. AmountPaid is derived from recorded invoice payments.
type Invoice struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"accountId"`
	InvoiceDate time.Time       `json:"invoiceDate"`
	TargetDate  time.Time       `json:"targetDate"`
	Currency    string          `json:"currency"`
	Items       []Item          `json:"items"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	WrittenOff  bool            `json:"writtenOff"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Total sums the invoice's item amounts.
func (inv *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Amount.Amount)
	}
	return total
}

// Balance is the outstanding amount: item total minus payments received.
func (inv *Invoice) Balance() decimal.Decimal {
	return inv.Total().Sub(inv.AmountPaid)
}

// Equal compares invoices by value, items included, with monetary amounts
// compared numerically. Item order matters; generation is deterministic.
func (inv *Invoice) Equal(other *Invoice) bool {
	if other == nil {
		return false
	}
	if inv.ID != other.ID ||
		inv.AccountID != other.AccountID ||
		inv.Currency != other.Currency ||
		inv.WrittenOff != other.WrittenOff {
		return false
	}
	if !inv.InvoiceDate.Equal(other.InvoiceDate) || !inv.TargetDate.Equal(other.TargetDate) {
		return false
	}
	if !inv.AmountPaid.Equal(other.AmountPaid) {
		return false
	}
	if len(inv.Items) != len(other.Items) {
		return false
	}
	for i := range inv.Items {
		a, b := &inv.Items[i], &other.Items[i]
		if a.ID != b.ID || a.AccountID != b.AccountID || a.Type != b.Type || a.Description != b.Description {
			return false
		}
		if (a.InvoiceID == nil) != (b.InvoiceID == nil) {
			return false
		}
		if a.InvoiceID != nil && *a.InvoiceID != *b.InvoiceID {
			return false
		}
		if !a.Amount.Equal(b.Amount) || !a.EffectiveDate.Equal(b.EffectiveDate) {
			return false
		}
	}
	return true
}

// Payment records one payment attempt against an invoice. Append-only.
type Payment struct {
	ID          uuid.UUID   `json:"id"`
	InvoiceID   uuid.UUID   `json:"invoiceId"`
	PaymentID   uuid.UUID   `json:"paymentId"`
	Amount      money.Money `json:"amount"`
	PaymentDate time.Time   `json:"paymentDate"`
	Success     bool        `json:"success"`
	CreatedAt   time.Time   `json:"createdAt"`
}
