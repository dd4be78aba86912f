// Package calculator contains pure aggregation over a project's
// transactions. No storage or session dependencies.
package calculator

import "github.com/mmynk/tripledger/internal/models"

// Totals summarizes one project's transaction set.
type Totals struct {
	// Income is the sum of amounts over income transactions.
	Income float64

	// Expense is the sum of amounts over expense transactions.
	Expense float64

	// Balance is Income minus Expense.
	Balance float64
}

// BalanceState is the presentation hint for a balance figure.
type BalanceState string

const (
	BalancePositive BalanceState = "positive"
	BalanceNegative BalanceState = "negative"
	BalanceNeutral  BalanceState = "neutral"
)

// ComputeTotals derives income, expense, and balance from the full
// transaction set. It recomputes from scratch on every call rather than
// accumulating incrementally; per-project transaction volume is small and a
// full pass cannot drift out of sync with the snapshot it was given.
func ComputeTotals(txns []models.Transaction) Totals {
	var t Totals
	for _, txn := range txns {
		switch txn.Type {
		case models.TypeIncome:
			t.Income += txn.Amount
		case models.TypeExpense:
			t.Expense += txn.Amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}

// State classifies the balance for display purposes.
func (t Totals) State() BalanceState {
	switch {
	case t.Balance > 0:
		return BalancePositive
	case t.Balance < 0:
		return BalanceNegative
	default:
		return BalanceNeutral
	}
}
