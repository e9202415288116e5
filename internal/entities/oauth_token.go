package entities

import "time"

// OAuthProvider names an external identity provider.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
)

// OAuthToken holds a provider's tokens for one federated account.
// AccessToken and RefreshToken are AES-256-GCM ciphertexts.
type OAuthToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Provider OAuthProvider `gorm:"type:varchar(50);not null;uniqueIndex:idx_provider_account" json:"provider"`

	// AccountID is the federated id the provider asserted for the user.
	AccountID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_provider_account" json:"account_id"`

	AccessToken  string     `gorm:"type:text;not null" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	TokenType    string     `gorm:"type:varchar(50);default:Bearer" json:"token_type"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`
	Scope        string     `gorm:"type:text" json:"scope,omitempty"`
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// IsExpired reports whether the access token expires within the next minute.
func (t *OAuthToken) IsExpired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.Add(time.Minute).After(*t.ExpiresAt)
}

// DecryptedToken is the in-memory form of an OAuthToken. It is never persisted.
type DecryptedToken struct {
	Provider     OAuthProvider
	AccountID    string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    *time.Time
	Scope        string
}
