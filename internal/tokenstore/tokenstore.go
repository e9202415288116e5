// Package tokenstore persists provider tokens for federated accounts,
// encrypted with AES-256-GCM.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/secrets/internal/crypto"
	"github.com/mrlokans/secrets/internal/entities"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenStore provides encrypted storage for OAuth tokens.
type TokenStore struct {
	db     *gorm.DB
	sealer *crypto.Sealer
	now    func() time.Time
}

// New creates a TokenStore on an already migrated database.
func New(db *gorm.DB, sealer *crypto.Sealer) *TokenStore {
	return &TokenStore{
		db:     db,
		sealer: sealer,
		now:    time.Now,
	}
}

// NewFromKey creates a TokenStore using a base64-encoded 32-byte key.
func NewFromKey(db *gorm.DB, encodedKey string) (*TokenStore, error) {
	sealer, err := crypto.NewSealerFromBase64(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}
	return New(db, sealer), nil
}

// binding ties a ciphertext to its row and field.
func binding(provider entities.OAuthProvider, accountID, field string) string {
	return string(provider) + ":" + accountID + ":" + field
}

// SaveToken encrypts and upserts the token for (provider, account).
func (s *TokenStore) SaveToken(ctx context.Context, token *entities.DecryptedToken) error {
	encAccess, err := s.sealer.Seal(token.AccessToken, binding(token.Provider, token.AccountID, "access"))
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := s.sealer.Seal(token.RefreshToken, binding(token.Provider, token.AccountID, "refresh"))
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	row := &entities.OAuthToken{
		Provider:     token.Provider,
		AccountID:    token.AccountID,
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		TokenType:    token.TokenType,
		ExpiresAt:    token.ExpiresAt,
		Scope:        token.Scope,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "expires_at", "scope", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetToken retrieves and decrypts the token for (provider, account).
func (s *TokenStore) GetToken(ctx context.Context, provider entities.OAuthProvider, accountID string) (*entities.DecryptedToken, error) {
	var row entities.OAuthToken
	err := s.db.WithContext(ctx).Where("provider = ? AND account_id = ?", provider, accountID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	accessToken, err := s.sealer.Open(row.AccessToken, binding(row.Provider, row.AccountID, "access"))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := s.sealer.Open(row.RefreshToken, binding(row.Provider, row.AccountID, "refresh"))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	return &entities.DecryptedToken{
		Provider:     row.Provider,
		AccountID:    row.AccountID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    row.TokenType,
		ExpiresAt:    row.ExpiresAt,
		Scope:        row.Scope,
	}, nil
}

// DeleteToken removes the token for (provider, account). Deleting a missing
// token is not an error.
func (s *TokenStore) DeleteToken(ctx context.Context, provider entities.OAuthProvider, accountID string) error {
	err := s.db.WithContext(ctx).
		Where("provider = ? AND account_id = ?", provider, accountID).
		Delete(&entities.OAuthToken{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens whose access token has expired and that carry
// no refresh token to renew them.
func (s *TokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ? AND (refresh_token IS NULL OR refresh_token = '')", s.now()).
		Delete(&entities.OAuthToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
