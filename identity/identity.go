package identity

import (
	"time"
)

// Identity is a registered user of the platform. PasswordHash and
// CurrentRefreshToken never serialize; the hash is computed exactly once per
// password mutation, before the record crosses the write boundary.
type Identity struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the identity
	Email        string    `json:"email,omitempty"`       // Email address, unique as stored
	PasswordHash string    `json:"-"`                     // Hashed version of the password - never serialize
	Name         string    `json:"name,omitempty"`        // Display name
	Bio          string    `json:"bio,omitempty"`         // Optional profile text
	AvatarURL    string    `json:"avatar_url,omitempty"`  // Optional profile image
	CreatedAt    time.Time `json:"created_at,omitempty"`  // When the identity registered

	// CurrentRefreshToken is the single refresh token considered current for
	// this identity. Issuing a new one overwrites it, which invalidates the
	// session on any other device still holding the old token.
	CurrentRefreshToken string `json:"-"`
}
