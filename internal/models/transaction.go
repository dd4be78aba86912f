package models

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Category sets are fixed and conditioned on the transaction type.
var (
	IncomeCategories  = []string{"Advance", "Donation", "Others"}
	ExpenseCategories = []string{"Supplies", "Delivery", "Food", "Transportation", "Others"}
)

// CategoriesFor returns the allowed categories for the given type.
func CategoriesFor(t TransactionType) []string {
	if t == TypeIncome {
		return IncomeCategories
	}
	return ExpenseCategories
}

// Transaction represents a single income or expense entry on a project.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// OwnerID is the session identity the transaction is scoped under.
	OwnerID string

	// ProjectID is the project this transaction belongs to. Required; every
	// transaction belongs to exactly one project.
	ProjectID string

	// Type is income or expense.
	Type TransactionType

	// Date is the calendar date of the transaction, RFC 3339.
	Date string

	// Amount is the non-negative amount in the parent project's currency.
	// Stored as a number, never a formatted string.
	Amount float64

	// Description is a short free-text note.
	Description string

	// Category is one of CategoriesFor(Type).
	Category string

	// Receipts is the ordered list of attached receipt image URIs.
	// Persisted as a JSON-encoded string in the store.
	Receipts []string

	// Timestamp is the creation time, RFC 3339.
	Timestamp string
}

// Validate checks the fields required before a transaction can be persisted.
func (t *Transaction) Validate() error {
	if t.ProjectID == "" {
		return validationError("projectId", "required")
	}
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return validationError("type", "must be income or expense")
	}
	if t.Date == "" {
		return validationError("date", "required")
	}
	if t.Amount < 0 {
		return validationError("amount", "must be non-negative")
	}
	if !validCategory(t.Type, t.Category) {
		return validationError("category", "not valid for transaction type")
	}
	return nil
}

func validCategory(t TransactionType, category string) bool {
	for _, c := range CategoriesFor(t) {
		if c == category {
			return true
		}
	}
	return false
}

// TransactionUpdate carries the fields an edit may change. Nil fields are
// left untouched. The parent project reference is not editable.
type TransactionUpdate struct {
	Type        *TransactionType
	Date        *string
	Amount      *float64
	Description *string
	Category    *string
	Receipts    *[]string
}
