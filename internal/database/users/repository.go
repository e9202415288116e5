// Package users provides the credential store: persistence of user records
// with sparse unique indexes on username and federated id.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByFederatedID(ctx, "google-sub")
//	if errors.Is(err, users.ErrNotFound) { ... }
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/entities"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrConflict    = errors.New("user already exists")
	ErrUnavailable = errors.New("credential store unavailable")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves a user by ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, "id = ?", id)
}

// FindByUsername retrieves a user by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	if username == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, "username = ?", username)
}

// FindByFederatedID retrieves a user by the id an external provider asserted.
func (r *Repository) FindByFederatedID(ctx context.Context, federatedID string) (*entities.User, error) {
	if federatedID == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, "federated_id = ?", federatedID)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

// Create inserts a new user. It never overwrites an existing record: a
// username or federated id that is already taken yields ErrConflict.
func (r *Repository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, classify(err)
	}
	return user, nil
}

// Save writes every column of an existing user. It is last-writer-wins over
// the whole row; use SetSecret to change a single field.
func (r *Repository) Save(ctx context.Context, user *entities.User) (*entities.User, error) {
	if user.ID == "" {
		return nil, ErrNotFound
	}
	result := r.db.WithContext(ctx).Model(user).Select("*").Omit("id", "created_at").Updates(user)
	if result.Error != nil {
		return nil, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetSecret replaces the secret of user id and touches updated_at, leaving
// every other column as stored. Returns the updated record.
func (r *Repository) SetSecret(ctx context.Context, id, secret string) (*entities.User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	result := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"secret": secret, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a user permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.User{})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWithSecrets returns every user that has submitted a secret, most recent first.
func (r *Repository) ListWithSecrets(ctx context.Context) ([]entities.User, error) {
	var found []entities.User
	err := r.db.WithContext(ctx).
		Where("secret IS NOT NULL").
		Order("updated_at DESC").
		Find(&found).Error
	if err != nil {
		return nil, classify(err)
	}
	return found, nil
}

// Count returns the number of stored users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// classify maps driver errors onto the repository's error kinds so that
// callers never see store internals.
func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
