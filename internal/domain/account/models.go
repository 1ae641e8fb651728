package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is the billing view of an account as served by the platform's
// account directory.
type Account struct {
	ID          uuid.UUID `json:"id"`
	ExternalKey string    `json:"externalKey"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Currency    string    `json:"currency"`

	// BillCycleDay is the day of month invoices are cut for this account.
	BillCycleDay int `json:"billCycleDay"`

	CreatedAt time.Time `json:"createdAt"`
}
