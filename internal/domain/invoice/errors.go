package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNonPositiveCredit rejects zero or negative credit amounts before any
	// persistence attempt.
	ErrNonPositiveCredit = errors.New("credit amount must be positive")

	ErrCreditNotFound = errors.New("credit not found")
)

// ErrorCode names a caller-visible invoice API failure.
type ErrorCode string

const (
	CodeNothingToDo     ErrorCode = "INVOICE_NOTHING_TO_DO"
	CodeInvoiceNotFound ErrorCode = "INVOICE_NOT_FOUND"
	CodeAccountNotFound ErrorCode = "INVOICE_ACCOUNT_NOT_FOUND"
)

// APIError is a coded facade failure. NothingToDo carries the account and
// target date so callers can tell "nothing was due" apart from transport or
// processing failures.
type APIError struct {
	Code       ErrorCode
	AccountID  uuid.UUID
	InvoiceID  uuid.UUID
	TargetDate time.Time
}

func (e *APIError) Error() string {
	switch e.Code {
	case CodeNothingToDo:
		return fmt.Sprintf("%s: no invoice to generate for account %s at %s",
			e.Code, e.AccountID, e.TargetDate.Format(time.RFC3339))
	case CodeInvoiceNotFound:
		return fmt.Sprintf("%s: invoice %s not found", e.Code, e.InvoiceID)
	case CodeAccountNotFound:
		return fmt.Sprintf("%s: account %s not found", e.Code, e.AccountID)
	}
	return string(e.Code)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
