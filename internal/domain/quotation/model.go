// Package quotation implements the quotation draft cart: line items are
// accumulated per session and persisted upstream as one record on submit.
package quotation

import (
	"github.com/shopspring/decimal"
)

// CartItem is one draft line of a quotation.
type CartItem struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"projectId"`
	ProjectName string          `json:"projectName,omitempty"`
	Description string          `json:"description"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	IsEditing   bool            `json:"isEditing"`
}

// LineTotal is qty times unit price.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Cart is the session-held draft. Submitting marks an in-flight submit so
// a second concurrent submit of the same draft is rejected, and
// IdempotencyKey survives a failed submit so a retry reuses the same key.
type Cart struct {
	Items          []CartItem `json:"items"`
	Submitting     bool       `json:"submitting"`
	IdempotencyKey string     `json:"idempotencyKey,omitempty"`
}

// SubTotal is the sum of all line totals.
func (c Cart) SubTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// TotalBill equals SubTotal; there is no tax or discount logic.
func (c Cart) TotalBill() decimal.Decimal {
	return c.SubTotal()
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// View is the cart as returned to the dashboard.
type View struct {
	Items     []CartItem      `json:"items"`
	SubTotal  decimal.Decimal `json:"subTotal"`
	TotalBill decimal.Decimal `json:"totalBill"`
}

func (c Cart) View() View {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return View{
		Items:     items,
		SubTotal:  c.SubTotal(),
		TotalBill: c.TotalBill(),
	}
}

// SubmitPayload is the quotation record persisted upstream.
type SubmitPayload struct {
	Date       string          `json:"date"`
	CustomerID string          `json:"customerId"`
	Items      []CartItem      `json:"items"`
	SubTotal   decimal.Decimal `json:"subTotal"`
	TotalBill  decimal.Decimal `json:"totalBill"`
}
