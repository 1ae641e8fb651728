package invoice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"billfold/internal/domain/money"
)

// ItemDraft is a charge computed by the billing logic but not yet persisted.
type ItemDraft struct {
	Type          ItemType
	Description   string
	Amount        money.Money
	EffectiveDate time.Time
}

// ChargeSource computes the charges due for an account as of a target date.
// Period-boundary rules (what counts as already invoiced, proration, catalog
// pricing) live behind this interface; the dispatcher only materializes and
// persists what the source reports.
type ChargeSource interface {
	ChargesDue(ctx context.Context, accountID uuid.UUID, targetDate time.Time, prior []*Invoice) ([]ItemDraft, error)
}

// Dispatcher computes, or simulates, the next invoice for an account.
// A (nil, nil) return is the "nothing to do" sentinel, an expected outcome
// distinct from failure.
type Dispatcher interface {
	ProcessAccount(ctx context.Context, accountID uuid.UUID, targetDate time.Time, dryRun bool) (*Invoice, error)
}

// GenerationDispatcher materializes charges from a ChargeSource into
// persisted invoices. Non-dry-run generation is serialized per account;
// dry runs take no lock and never write.
type GenerationDispatcher struct {
	repo    Repository
	charges ChargeSource

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewGenerationDispatcher(repo Repository, charges ChargeSource) *GenerationDispatcher {
	return &GenerationDispatcher{
		repo:    repo,
		charges: charges,
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// accountLock returns the mutex guarding non-dry-run generation for one
// account. Generation for different accounts proceeds in parallel.
func (d *GenerationDispatcher) accountLock(accountID uuid.UUID) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	lock, ok := d.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[accountID] = lock
	}
	return lock
}

func (d *GenerationDispatcher) ProcessAccount(ctx context.Context, accountID uuid.UUID, targetDate time.Time, dryRun bool) (*Invoice, error) {
	if dryRun {
		return d.compute(ctx, accountID, targetDate)
	}

	lock := d.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	inv, err := d.compute(ctx, accountID, targetDate)
	if err != nil || inv == nil {
		return nil, err
	}

	if err := d.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to persist generated invoice: %w", err)
	}
	return inv, nil
}

// compute builds the would-be invoice without persisting anything.
func (d *GenerationDispatcher) compute(ctx context.Context, accountID uuid.UUID, targetDate time.Time) (*Invoice, error) {
	prior, err := d.repo.ListByAccount(ctx, accountID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior invoices: %w", err)
	}

	// Re-invoking after a successful generation for the same boundary must
	// not double-charge.
	for _, p := range prior {
		if p.TargetDate.Equal(targetDate) {
			return nil, nil
		}
	}

	drafts, err := d.charges.ChargesDue(ctx, accountID, targetDate, prior)
	if err != nil {
		return nil, fmt.Errorf("failed to compute charges: %w", err)
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	invoiceID := uuid.New()
	inv := &Invoice{
		ID:          invoiceID,
		AccountID:   accountID,
		InvoiceDate: now,
		TargetDate:  targetDate,
		Currency:    drafts[0].Amount.Currency,
		Items:       make([]Item, 0, len(drafts)),
		CreatedAt:   now,
	}
	for _, draft := range drafts {
		id := invoiceID
		inv.Items = append(inv.Items, Item{
			ID:            uuid.New(),
			InvoiceID:     &id,
			AccountID:     accountID,
			Type:          draft.Type,
			Description:   draft.Description,
			Amount:        draft.Amount,
			EffectiveDate: draft.EffectiveDate,
			CreatedAt:     now,
		})
	}
	return inv, nil
}
