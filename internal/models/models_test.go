package models

import (
	"errors"
	"testing"
)

func TestProjectValidate(t *testing.T) {
	valid := func() *Project {
		return &Project{Name: "Trip", InCharge: "Alice", Currency: "USD", PasswordHash: "deadbeef"}
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("Expected valid project, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Project)
		field  string
	}{
		{"missing name", func(p *Project) { p.Name = "" }, "name"},
		{"missing in charge", func(p *Project) { p.InCharge = "" }, "inCharge"},
		{"unknown currency", func(p *Project) { p.Currency = "GBP" }, "currency"},
		{"missing password", func(p *Project) { p.PasswordHash = "" }, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate()
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if validation.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, validation.Field)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := func() *Transaction {
		return &Transaction{
			ProjectID: "p1", Type: TypeExpense, Date: "2025-06-01T00:00:00Z",
			Amount: 10, Category: "Food",
		}
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("Expected valid transaction, got %v", err)
	}

	t.Run("zero amount is allowed", func(t *testing.T) {
		txn := valid()
		txn.Amount = 0
		if err := txn.Validate(); err != nil {
			t.Errorf("Zero amount rejected: %v", err)
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		txn := valid()
		txn.Amount = -0.01
		if err := txn.Validate(); err == nil {
			t.Error("Negative amount accepted")
		}
	})

	t.Run("category must match type", func(t *testing.T) {
		txn := valid()
		txn.Type = TypeIncome
		// Food is an expense category
		if err := txn.Validate(); err == nil {
			t.Error("Expense category accepted on income entry")
		}
		txn.Category = "Advance"
		if err := txn.Validate(); err != nil {
			t.Errorf("Income category rejected: %v", err)
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		txn := valid()
		txn.Type = "transfer"
		if err := txn.Validate(); err == nil {
			t.Error("Unknown type accepted")
		}
	})
}

func TestDailyReportValidate(t *testing.T) {
	valid := func() *DailyReport {
		return &DailyReport{
			ProjectID: "p1", Date: "2025-06-01T00:00:00Z",
			Participants: "Alice", WhatWeDid: "Scouted venues",
		}
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("Expected valid report, got %v", err)
	}

	t.Run("photo cap", func(t *testing.T) {
		report := valid()
		report.Photos = make([]string, MaxReportPhotos)
		if err := report.Validate(); err != nil {
			t.Errorf("Exactly %d photos rejected: %v", MaxReportPhotos, err)
		}

		report.Photos = append(report.Photos, "one-too-many.jpg")
		if err := report.Validate(); err == nil {
			t.Error("Photo cap not enforced")
		}
	})
}

func TestCategoriesFor(t *testing.T) {
	if got := CategoriesFor(TypeIncome); len(got) != 3 {
		t.Errorf("Expected 3 income categories, got %v", got)
	}
	if got := CategoriesFor(TypeExpense); len(got) != 5 {
		t.Errorf("Expected 5 expense categories, got %v", got)
	}
}

func TestRandomColor(t *testing.T) {
	for i := 0; i < 50; i++ {
		color := RandomColor()
		var found bool
		for _, c := range colorPalette {
			if c == color {
				found = true
			}
		}
		if !found {
			t.Fatalf("Color %s not in palette", color)
		}
	}
}
