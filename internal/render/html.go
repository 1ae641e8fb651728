package render

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"billfold/internal/domain/account"
	"billfold/internal/domain/invoice"
)

//go:embed invoice.html
var files embed.FS

var invoiceTmpl = template.Must(template.ParseFS(files, "invoice.html"))

// HTMLRenderer renders invoices with the embedded HTML template.
type HTMLRenderer struct{}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

type invoiceView struct {
	AccountName  string
	AccountEmail string
	InvoiceID    string
	InvoiceDate  string
	TargetDate   string
	Currency     string
	Items        []itemView
	Total        string
	Balance      string
	WrittenOff   bool
}

type itemView struct {
	Description   string
	Type          string
	EffectiveDate string
	Amount        string
}

func (r *HTMLRenderer) Render(ctx context.Context, acct *account.Account, inv *invoice.Invoice) (string, error) {
	view := invoiceView{
		AccountName:  acct.Name,
		AccountEmail: acct.Email,
		InvoiceID:    inv.ID.String(),
		InvoiceDate:  inv.InvoiceDate.Format("2006-01-02"),
		TargetDate:   inv.TargetDate.Format("2006-01-02"),
		Currency:     inv.Currency,
		Total:        inv.Total().String(),
		Balance:      inv.Balance().String(),
		WrittenOff:   inv.WrittenOff,
	}
	for _, item := range inv.Items {
		view.Items = append(view.Items, itemView{
			Description:   item.Description,
			Type:          string(item.Type),
			EffectiveDate: item.EffectiveDate.Format("2006-01-02"),
			Amount:        item.Amount.Amount.String(),
		})
	}

	var b strings.Builder
	if err := invoiceTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("failed to render invoice %s: %w", inv.ID, err)
	}
	return b.String(), nil
}
