package models

import "math/rand"

// Currencies is the fixed set of currency codes a project can be created with.
var Currencies = []string{"USD", "EUR", "KRW", "JPY", "CNY", "INR", "THB", "LKR", "VND"}

// colorPalette is the fixed set of card colors assigned to new projects.
var colorPalette = []string{
	"#A2D2FF", "#BDE0FE", "#CDB4DB", "#FFC8DD", "#FFADAD",
	"#FFD6A5", "#FFF4A3", "#FCE4EC", "#FCE2DA", "#E0FBE2",
}

// RandomColor picks a display color for a new project from the palette.
func RandomColor() string {
	return colorPalette[rand.Intn(len(colorPalette))]
}

// Project represents a password-protected trip or engagement under which
// transactions and daily reports are recorded.
type Project struct {
	// ID is the unique identifier for the project (UUID format).
	ID string

	// OwnerID is the anonymous session identity that created the project.
	// All of the project's records live under this scope in the store.
	OwnerID string

	// Name is the display name of the project (e.g., "Summer Trip 2025").
	Name string

	// InCharge is the name of the person responsible for the project.
	InCharge string

	// Currency is one of the codes in Currencies. All of the project's
	// transaction amounts are implicitly in this currency.
	Currency string

	// PasswordHash is the SHA-256 digest of the project's access password.
	// It is set once at creation and never changed by an edit; ProjectUpdate
	// deliberately has no password field.
	PasswordHash string

	// Color is the display color assigned at creation from the palette.
	Color string
}

// Validate checks the fields required before a project can be persisted.
func (p *Project) Validate() error {
	if p.Name == "" {
		return validationError("name", "required")
	}
	if p.InCharge == "" {
		return validationError("inCharge", "required")
	}
	if !validCurrency(p.Currency) {
		return validationError("currency", "must be one of the supported codes")
	}
	if p.PasswordHash == "" {
		return validationError("password", "required")
	}
	return nil
}

func validCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// ProjectUpdate carries the fields an edit may change. Nil fields are left
// untouched. The password hash is not editable: the access credential is
// fixed at creation.
type ProjectUpdate struct {
	Name     *string
	InCharge *string
	Currency *string
}

// Validate rejects updates whose supplied fields are malformed.
func (u *ProjectUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return validationError("name", "required")
	}
	if u.InCharge != nil && *u.InCharge == "" {
		return validationError("inCharge", "required")
	}
	if u.Currency != nil && !validCurrency(*u.Currency) {
		return validationError("currency", "must be one of the supported codes")
	}
	return nil
}
