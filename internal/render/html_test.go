package render

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"billfold/internal/domain/account"
	"billfold/internal/domain/invoice"
	"billfold/internal/domain/money"
)

func TestRender_IncludesAccountAndItems(t *testing.T) {
	amount, err := money.FromString("30.00", "USD")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}

	invID := uuid.New()
	inv := &invoice.Invoice{
		ID:          invID,
		AccountID:   uuid.New(),
		InvoiceDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Currency:    "USD",
		Items: []invoice.Item{
			{
				ID:            uuid.New(),
				InvoiceID:     &invID,
				Type:          invoice.ItemRecurring,
				Description:   "Monthly subscription",
				Amount:        amount,
				EffectiveDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	acct := &account.Account{ID: inv.AccountID, Name: "Acme Corp", Email: "billing@acme.test"}

	html, err := NewHTMLRenderer().Render(context.Background(), acct, inv)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, want := range []string{"Acme Corp", "Monthly subscription", "30", inv.ID.String()} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRender_EscapesAccountName(t *testing.T) {
	inv := &invoice.Invoice{ID: uuid.New(), Currency: "USD"}
	acct := &account.Account{Name: "<script>alert(1)</script>"}

	html, err := NewHTMLRenderer().Render(context.Background(), acct, inv)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("rendered HTML contains unescaped script tag")
	}
}
