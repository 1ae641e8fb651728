package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billfold/internal/domain/account"
	"billfold/internal/domain/money"
	"billfold/internal/domain/tag"
)

// Renderer turns an invoice into a human-readable document. Owned by the
// template-rendering collaborator.
type Renderer interface {
	Render(ctx context.Context, acct *account.Account, inv *Invoice) (string, error)
}

// Service is the invoice facade callers depend on. It delegates reads and
// writes to the repository, generation to the dispatcher, and translates
// domain-absent results into typed outcomes. It never swallows a repository
// or dispatcher failure.
type Service struct {
	repo       Repository
	dispatcher Dispatcher
	directory  account.Directory
	renderer   Renderer
	tags       tag.Service
}

func NewService(repo Repository, dispatcher Dispatcher, directory account.Directory, renderer Renderer, tags tag.Service) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		directory:  directory,
		renderer:   renderer,
		tags:       tags,
	}
}

// InvoicesByAccount returns the account's invoices, optionally from a date
// onward. Returns an empty slice, never nil, when nothing matches.
func (s *Service) InvoicesByAccount(ctx context.Context, accountID uuid.UUID, from *time.Time) ([]*Invoice, error) {
	invoices, err := s.repo.ListByAccount(ctx, accountID, from)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	return invoices, nil
}

// UnpaidInvoicesByAccount returns invoices with an outstanding balance up to
// and including upTo.
func (s *Service) UnpaidInvoicesByAccount(ctx context.Context, accountID uuid.UUID, upTo time.Time) ([]*Invoice, error) {
	invoices, err := s.repo.ListUnpaidByAccount(ctx, accountID, upTo)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	return invoices, nil
}

// Invoice fetches a single invoice, failing with INVOICE_NOT_FOUND when the
// id is unknown.
func (s *Service) Invoice(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &APIError{Code: CodeInvoiceNotFound, InvoiceID: invoiceID}
	}
	return inv, nil
}

// AccountBalance normalizes "no balance data" to zero. Callers rely on
// always getting a value back.
func (s *Service) AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	balance, ok, err := s.repo.AccountBalance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, nil
	}
	return balance, nil
}

// TriggerInvoiceGeneration runs the dispatcher for the account at the target
// date. The dispatcher's "nothing to do" sentinel becomes an APIError with
// code INVOICE_NOTHING_TO_DO carrying the account and target date; every
// other failure passes through unchanged.
func (s *Service) TriggerInvoiceGeneration(ctx context.Context, accountID uuid.UUID, targetDate time.Time, dryRun bool) (*Invoice, error) {
	inv, err := s.dispatcher.ProcessAccount(ctx, accountID, targetDate, dryRun)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &APIError{Code: CodeNothingToDo, AccountID: accountID, TargetDate: targetDate}
	}
	return inv, nil
}

// InsertCredit adds a credit against the account balance generically.
func (s *Service) InsertCredit(ctx context.Context, accountID uuid.UUID, amount money.Money, effectiveDate time.Time) (*Item, error) {
	return s.insertCredit(ctx, accountID, nil, amount, effectiveDate)
}

// InsertCreditForInvoice adds a credit bound to a specific invoice.
func (s *Service) InsertCreditForInvoice(ctx context.Context, accountID, invoiceID uuid.UUID, amount money.Money, effectiveDate time.Time) (*Item, error) {
	return s.insertCredit(ctx, accountID, &invoiceID, amount, effectiveDate)
}

func (s *Service) insertCredit(ctx context.Context, accountID uuid.UUID, invoiceID *uuid.UUID, amount money.Money, effectiveDate time.Time) (*Item, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveCredit
	}
	return s.repo.InsertCredit(ctx, InsertCreditParams{
		AccountID:     accountID,
		InvoiceID:     invoiceID,
		Amount:        amount,
		EffectiveDate: effectiveDate,
	})
}

// CreditByID fetches a single credit item.
func (s *Service) CreditByID(ctx context.Context, creditID uuid.UUID) (*Item, error) {
	item, err := s.repo.GetCreditByID(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCreditNotFound
	}
	return item, nil
}

// NotifyOfPaymentAttempt records a payment attempt against an invoice.
func (s *Service) NotifyOfPaymentAttempt(ctx context.Context, p *Payment) error {
	return s.repo.RecordPayment(ctx, p)
}

// InvoiceAsHTML renders the invoice for its owning account. The not-found
// check runs before any directory or renderer call.
func (s *Service) InvoiceAsHTML(ctx context.Context, invoiceID uuid.UUID) (string, error) {
	inv, err := s.Invoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	acct, err := s.directory.GetByID(ctx, inv.AccountID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve invoice account: %w", err)
	}
	if acct == nil {
		return "", &APIError{Code: CodeAccountNotFound, AccountID: inv.AccountID}
	}

	return s.renderer.Render(ctx, acct, inv)
}

// TagAsWrittenOff marks the invoice written off. Idempotent.
func (s *Service) TagAsWrittenOff(ctx context.Context, invoiceID uuid.UUID) error {
	return s.tags.SetTag(ctx, invoiceID, tag.KindWrittenOff)
}

// TagAsNotWrittenOff clears the written-off mark. Idempotent.
func (s *Service) TagAsNotWrittenOff(ctx context.Context, invoiceID uuid.UUID) error {
	return s.tags.ClearTag(ctx, invoiceID, tag.KindWrittenOff)
}
