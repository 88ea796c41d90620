package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTenantNameLength bounds tenant display names, in characters.
const MaxTenantNameLength = 200

// Tenant is the isolation boundary for a customer's document corpus.
// Documents never cross tenants and every query is filtered by tenant.
type Tenant struct {
	// ID is the unique identifier (a UUID string).
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// CreatedAt is when the tenant was created.
	CreatedAt time.Time `json:"created_at"`
}

// ValidateTenantName trims and checks a tenant display name.
func ValidateTenantName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxTenantNameLength {
		return "", NewValidationError("name", "must be at most 200 characters")
	}
	return name, nil
}
