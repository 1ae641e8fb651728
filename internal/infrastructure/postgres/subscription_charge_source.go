package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billfold/internal/domain/invoice"
	"billfold/internal/domain/money"
)

// SubscriptionChargeSource computes recurring charges from the subscriptions
// table. Each active subscription bills monthly in advance on the anniversary
// of its start date; a period already billed on a prior invoice is not
// charged again.
type SubscriptionChargeSource struct {
	db *DB
}

func NewSubscriptionChargeSource(db *DB) *SubscriptionChargeSource {
	return &SubscriptionChargeSource{db: db}
}

type subscriptionRow struct {
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    string
	StartDate   time.Time
}

func (s *SubscriptionChargeSource) ChargesDue(ctx context.Context, accountID uuid.UUID, targetDate time.Time, prior []*invoice.Invoice) ([]invoice.ItemDraft, error) {
	subs, err := s.activeSubscriptions(ctx, accountID, targetDate)
	if err != nil {
		return nil, err
	}

	// Index billed periods so a subscription is never charged twice for the
	// same boundary.
	billed := make(map[string]bool)
	for _, inv := range prior {
		for i := range inv.Items {
			item := &inv.Items[i]
			if item.Type == invoice.ItemRecurring {
				billed[periodKey(item.Description, item.EffectiveDate)] = true
			}
		}
	}

	var drafts []invoice.ItemDraft
	for _, sub := range subs {
		periodStart := currentPeriodStart(sub.StartDate, targetDate)
		if billed[periodKey(sub.Description, periodStart)] {
			continue
		}
		drafts = append(drafts, invoice.ItemDraft{
			Type:          invoice.ItemRecurring,
			Description:   sub.Description,
			Amount:        money.New(sub.Amount, sub.Currency),
			EffectiveDate: periodStart,
		})
	}

	return drafts, nil
}

func (s *SubscriptionChargeSource) activeSubscriptions(ctx context.Context, accountID uuid.UUID, asOf time.Time) ([]subscriptionRow, error) {
	query := `
		SELECT id, description, amount, currency, start_date
		FROM subscriptions
		WHERE account_id = $1
		  AND active = TRUE
		  AND start_date <= $2
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, accountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []subscriptionRow
	for rows.Next() {
		var sub subscriptionRow
		var amount string
		if err := rows.Scan(&sub.ID, &sub.Description, &amount, &sub.Currency, &sub.StartDate); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse subscription amount: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}

	return subs, nil
}

// currentPeriodStart returns the latest monthly anniversary of start that is
// on or before asOf. Anniversaries in months shorter than start's day of
// month fall on the last day of that month (a Jan 31 start bills Feb 28).
func currentPeriodStart(start, asOf time.Time) time.Time {
	if asOf.Before(start) {
		return start
	}

	months := (asOf.Year()-start.Year())*12 + int(asOf.Month()-start.Month())
	candidate := monthlyAnniversary(start, months)
	if candidate.After(asOf) {
		candidate = monthlyAnniversary(start, months-1)
	}
	return candidate
}

// monthlyAnniversary shifts start by a number of months, clamping the day of
// month to the target month's length. AddDate is not used on the full date
// because it normalizes overflow into the next month (Feb 31 -> Mar 3).
func monthlyAnniversary(start time.Time, months int) time.Time {
	first := time.Date(start.Year(), start.Month(), 1,
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
	first = first.AddDate(0, months, 0)

	day := start.Day()
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func periodKey(description string, periodStart time.Time) string {
	return description + "|" + periodStart.UTC().Format(time.RFC3339)
}
