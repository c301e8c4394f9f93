package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/authrelay/authrelay/internal/db/models"
)

// ErrEmptyEmail is returned when a claim set carries no usable email.
var ErrEmptyEmail = errors.New("empty email")

// Store persists provisioned user accounts and group memberships.
type Store interface {
	// GetOrCreateByEmail returns the account for email, creating it when no
	// account exists yet. Email is the identity key: two calls with the same
	// email always yield the same row.
	GetOrCreateByEmail(ctx context.Context, email string) (*models.User, error)

	// AddToGroup ensures the named group exists and that user is a member.
	// Adding an existing member is a no-op.
	AddToGroup(ctx context.Context, user *models.User, groupName string) error

	// UpdateIdentity records the provider and name claims of the latest
	// successful login on the account.
	UpdateIdentity(ctx context.Context, user *models.User, providerName, subject, firstName, lastName string) error
}

// GormStore is the gorm-backed Store implementation.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on top of an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// GetOrCreateByEmail looks the account up inside one transaction so that
// concurrent logins with the same identity cannot race into duplicate rows.
func (s *GormStore) GetOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, ErrEmptyEmail
	}

	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("email = ?", email).
			FirstOrCreate(&user, models.User{
				Email:    email,
				Username: email,
				Active:   true,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user %s: %w", email, err)
	}

	return &user, nil
}

// AddToGroup creates the group on first sight and inserts the membership,
// tolerating one that already exists.
func (s *GormStore) AddToGroup(ctx context.Context, user *models.User, groupName string) error {
	if groupName == "" {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group

		err := tx.Where("name = ?", groupName).
			FirstOrCreate(&group, models.Group{Name: groupName}).Error
		if err != nil {
			return fmt.Errorf("failed to get or create group %s: %w", groupName, err)
		}

		var count int64
		err = tx.Model(&models.UserGroup{}).
			Where("user_id = ? AND group_id = ?", user.ID, group.ID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check group membership: %w", err)
		}

		if count > 0 {
			return nil
		}

		if err := tx.Create(&models.UserGroup{
			UserID:  user.ID,
			GroupID: group.ID,
		}).Error; err != nil {
			return fmt.Errorf("failed to add group membership: %w", err)
		}

		return nil
	})
}

// UpdateIdentity records the provider and claims of the latest successful
// login on the account.
func (s *GormStore) UpdateIdentity(ctx context.Context, user *models.User, providerName, subject, firstName, lastName string) error {
	user.ProviderName = providerName
	user.Subject = subject

	if firstName != "" {
		user.FirstName = firstName
	}

	if lastName != "" {
		user.LastName = lastName
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.Email, err)
	}

	return nil
}
