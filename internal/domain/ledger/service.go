package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/officehub/backend/internal/domain/errors"
)

// Source fetches the raw entry list for an account from the office API.
// The caller's credentials and role scope travel in the context.
type Source interface {
	AccountEntries(ctx context.Context, kind AccountKind, accountID string) ([]Entry, error)
}

// Service produces annotated account statements.
type Service struct {
	source Source
}

// NewService creates a new ledger service
func NewService(source Source) *Service {
	return &Service{source: source}
}

// Statement fetches an account's entries and annotates them with running
// balances.
func (s *Service) Statement(ctx context.Context, kind AccountKind, accountID string) (*Statement, error) {
	if !ValidAccountKind(kind) {
		return nil, errors.NewValidationError("account kind must be customer or supplier")
	}
	if accountID == "" {
		return nil, errors.NewValidationError("account id is required")
	}

	entries, err := s.source.AccountEntries(ctx, kind, accountID)
	if err != nil {
		return nil, err
	}

	lines := Annotate(entries)
	return &Statement{
		AccountKind: kind,
		AccountID:   accountID,
		Lines:       lines,
		Totals:      Totals(lines),
	}, nil
}

// Annotate walks the entries in chronological order and computes each row's
// running balance. Entries are sorted by payment date with ID as tie-break
// first; the balancing itself is a single left-to-right pass with one
// accumulator starting at zero:
//
//	netBalance[i] = netBalance[i-1] + (debit[i] - credit[i])
//
// Pure function of its input; the input slice is not modified.
func Annotate(entries []Entry) []StatementLine {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].PaymentDate != ordered[j].PaymentDate {
			return ordered[i].PaymentDate < ordered[j].PaymentDate
		}
		return ordered[i].ID < ordered[j].ID
	})

	lines := make([]StatementLine, 0, len(ordered))
	running := decimal.Zero
	for _, e := range ordered {
		balance := e.Debit.Sub(e.Credit.Decimal)
		line := StatementLine{
			Entry:       e,
			Balance:     balance,
			PrevBalance: running,
			NetBalance:  running.Add(balance),
		}
		running = line.NetBalance
		lines = append(lines, line)
	}
	return lines
}

// Totals sums a statement's debit and credit columns. Closing equals the
// last line's net balance.
func Totals(lines []StatementLine) StatementTotals {
	t := StatementTotals{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Closing:     decimal.Zero,
	}
	for _, l := range lines {
		t.TotalDebit = t.TotalDebit.Add(l.Debit.Decimal)
		t.TotalCredit = t.TotalCredit.Add(l.Credit.Decimal)
	}
	if n := len(lines); n > 0 {
		t.Closing = lines[n-1].NetBalance
	}
	return t
}
