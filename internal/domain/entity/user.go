// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity of the system, representing one account.
// The password never crosses the hashing boundary in plaintext: only
// the bcrypt hash is stored, and comparison happens through the
// PasswordHasher service.
type User struct {
	ID           uuid.UUID // The unique identifier for the user.
	Username     string    // The login identifier, unique across the system.
	PasswordHash string    // Bcrypt hash of the user's password. Never the plaintext.
	DisplayName  string    // Optional human-readable name shown in the UI.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}
