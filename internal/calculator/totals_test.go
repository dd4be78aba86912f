package calculator

import (
	"math"
	"testing"

	"github.com/mmynk/tripledger/internal/models"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name        string
		txns        []models.Transaction
		wantIncome  float64
		wantExpense float64
		wantBalance float64
		wantState   BalanceState
	}{
		{
			name:        "empty set is neutral",
			txns:        nil,
			wantIncome:  0,
			wantExpense: 0,
			wantBalance: 0,
			wantState:   BalanceNeutral,
		},
		{
			name: "single expense",
			txns: []models.Transaction{
				{Type: models.TypeExpense, Amount: 42.50, Category: "Food"},
			},
			wantIncome:  0,
			wantExpense: 42.5,
			wantBalance: -42.5,
			wantState:   BalanceNegative,
		},
		{
			name: "mixed income and expense",
			txns: []models.Transaction{
				{Type: models.TypeIncome, Amount: 500, Category: "Donation"},
				{Type: models.TypeIncome, Amount: 120.25, Category: "Advance"},
				{Type: models.TypeExpense, Amount: 75.75, Category: "Supplies"},
				{Type: models.TypeExpense, Amount: 30, Category: "Transportation"},
			},
			wantIncome:  620.25,
			wantExpense: 105.75,
			wantBalance: 514.5,
			wantState:   BalancePositive,
		},
		{
			name: "income equals expense is neutral",
			txns: []models.Transaction{
				{Type: models.TypeIncome, Amount: 100, Category: "Others"},
				{Type: models.TypeExpense, Amount: 100, Category: "Others"},
			},
			wantIncome:  100,
			wantExpense: 100,
			wantBalance: 0,
			wantState:   BalanceNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.txns)
			if math.Abs(got.Income-tt.wantIncome) > 0.001 {
				t.Errorf("Income = %v, want %v", got.Income, tt.wantIncome)
			}
			if math.Abs(got.Expense-tt.wantExpense) > 0.001 {
				t.Errorf("Expense = %v, want %v", got.Expense, tt.wantExpense)
			}
			if math.Abs(got.Balance-tt.wantBalance) > 0.001 {
				t.Errorf("Balance = %v, want %v", got.Balance, tt.wantBalance)
			}
			if got.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", got.State(), tt.wantState)
			}
		})
	}
}

func TestTotalsBalanceIdentity(t *testing.T) {
	// balance must always equal income - expense, whatever the mix
	sets := [][]models.Transaction{
		{{Type: models.TypeIncome, Amount: 0.1}, {Type: models.TypeIncome, Amount: 0.2}},
		{{Type: models.TypeExpense, Amount: 99999.99}},
		{{Type: models.TypeIncome, Amount: 3.33}, {Type: models.TypeExpense, Amount: 1.11}},
	}
	for _, txns := range sets {
		got := ComputeTotals(txns)
		if math.Abs(got.Balance-(got.Income-got.Expense)) > 1e-9 {
			t.Errorf("Balance = %v, want Income-Expense = %v", got.Balance, got.Income-got.Expense)
		}
	}
}
