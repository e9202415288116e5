package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can authenticate with a local password, a federated
// identity, or both. Username and FederatedID are nullable so that their
// unique indexes stay sparse.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     *string   `gorm:"uniqueIndex;size:64" json:"username,omitempty"`
	PasswordHash *string   `gorm:"size:255" json:"-"`
	FederatedID  *string   `gorm:"uniqueIndex;size:255" json:"-"`
	Provider     string    `gorm:"size:50" json:"provider,omitempty"`
	Secret       *string   `gorm:"type:text" json:"secret,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random identifier to new users.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasPassword reports whether the user can sign in with local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsFederated reports whether the user is linked to an external identity.
func (u *User) IsFederated() bool {
	return u.FederatedID != nil && *u.FederatedID != ""
}

// DisplayName returns the username, falling back to the provider name for
// accounts created through federated sign-in.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.Provider != "" {
		return u.Provider + " user"
	}
	return "anonymous"
}

// SecretText returns the submitted secret or an empty string.
func (u *User) SecretText() string {
	if u.Secret == nil {
		return ""
	}
	return *u.Secret
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
