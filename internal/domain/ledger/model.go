package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes the two ledger views the dashboard renders.
type AccountKind string

const (
	CustomerAccount AccountKind = "customer"
	SupplierAccount AccountKind = "supplier"
)

// ValidAccountKind reports whether k names a known account kind.
func ValidAccountKind(k AccountKind) bool {
	return k == CustomerAccount || k == SupplierAccount
}

// Amount is a decimal amount that tolerates the office API's loose numeric
// encoding: JSON numbers, numeric strings, empty strings and null all
// decode; anything malformed coerces to zero rather than failing the row.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal as an Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// AmountFromString parses s, coercing malformed input to zero.
func AmountFromString(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{Decimal: decimal.Zero}
	}
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d
	return nil
}

// Entry is one debit/credit transaction row against a customer or supplier
// account, as returned by the office API. PaymentDate is an ISO date
// (YYYY-MM-DD); rows are ordered by it before balancing rather than
// trusting upstream order.
type Entry struct {
	ID            string `json:"id"`
	RefNo         string `json:"refNo"`
	Debit         Amount `json:"debit"`
	Credit        Amount `json:"credit"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentDate   string `json:"paymentDate"`
}

// StatementLine is an Entry annotated with its running-balance fields.
// The three derived amounts exist only in the rendered view; they are
// recomputed from scratch whenever the entry list changes.
type StatementLine struct {
	Entry
	Balance     decimal.Decimal `json:"balance"`
	PrevBalance decimal.Decimal `json:"prevBalance"`
	NetBalance  decimal.Decimal `json:"netBalance"`
}

// SearchText is the concatenation of display fields the list-view filter
// matches against.
func (l StatementLine) SearchText() string {
	return l.RefNo + " " + l.PaymentMethod + " " + l.PaymentDate
}

// StatementTotals summarizes a statement for its footer row.
type StatementTotals struct {
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Closing     decimal.Decimal `json:"closing"`
}

// Statement is the fully annotated ledger view for one account.
type Statement struct {
	AccountKind AccountKind     `json:"accountKind"`
	AccountID   string          `json:"accountId"`
	Lines       []StatementLine `json:"lines"`
	Totals      StatementTotals `json:"totals"`
}
