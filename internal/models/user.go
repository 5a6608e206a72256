package models

import "time"

// Role values for User.Role.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account in the system.
// Email is stored lowercased and is the unique login identity.
type User struct {
	ID           string    `json:"id"`         // user UUID
	Email        string    `json:"email"`      // normalized (lowercased) email
	PasswordHash string    `json:"-"`          // bcrypt hash, never serialized
	Role         string    `json:"role"`       // USER or ADMIN
	CreatedAt    time.Time `json:"created_at"` // creation time
	UpdatedAt    time.Time `json:"updated_at"` // last update time
}

// RefreshToken represents a persisted refresh token record.
// Only the SHA-256 digest of the raw token is stored; the raw value
// leaves the process exactly once, in the response that issued it.
type RefreshToken struct {
	ID        string    `json:"id"`         // token UUID
	TokenHash string    `json:"token_hash"` // sha256 digest, base64 raw-url encoded
	UserID    string    `json:"user_id"`    // owning user ID
	ExpiresAt time.Time `json:"expires_at"` // expiry time
	IsRevoked bool      `json:"is_revoked"` // set on rotation, logout or account deletion
	CreatedAt time.Time `json:"created_at"` // creation time
	UpdatedAt time.Time `json:"updated_at"` // last state change (revocation timestamp source)
}

// Active reports whether the token can still be exchanged at the given time.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// Profile represents the public profile linked to a user account.
type Profile struct {
	ID          string    `json:"id"`           // profile UUID
	UserID      string    `json:"user_id"`      // owning user ID
	Slug        string    `json:"slug"`         // unique URL slug
	DisplayName string    `json:"display_name"` // display name shown publicly
	Headline    string    `json:"headline"`     // short role/headline line
	Bio         string    `json:"bio"`          // free-form bio
	Location    string    `json:"location"`     // location string
	CreatedAt   time.Time `json:"created_at"`   // creation time
	UpdatedAt   time.Time `json:"updated_at"`   // last update time
}
