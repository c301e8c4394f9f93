package models

import "time"

// User represents a local user account provisioned from an identity provider.
//
// Users are keyed by email: the user-mapping step looks an account up (or
// creates it) by the email claim of the userinfo response, so repeated logins
// with the same identity never create a second row.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the account may log in.
	Active bool
	// Email is the identity key, unique across all providers.
	Email string `gorm:"uniqueIndex;size:255;not null"`
	// Username defaults to the email address for provisioned accounts.
	Username string `gorm:"size:100"`
	// FirstName is the user's given name, taken from the given_name claim when present.
	FirstName string `gorm:"size:100"`
	// LastName is the user's family name, taken from the family_name claim when present.
	LastName string `gorm:"size:100"`
	// ProviderName is the name of the identity provider that last authenticated the user.
	ProviderName string `gorm:"size:100"`
	// Subject is the OIDC sub claim from the last successful login.
	Subject string `gorm:"size:255"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}
