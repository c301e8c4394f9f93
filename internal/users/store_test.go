package users

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/authrelay/authrelay/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Group{}, &models.UserGroup{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGetOrCreateByEmail(t *testing.T) {
	store := NewGormStore(setupTestDB(t))
	ctx := context.Background()

	first, err := store.GetOrCreateByEmail(ctx, "jane@example.org")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, "jane@example.org", first.Email)
	assert.Equal(t, "jane@example.org", first.Username)
	assert.True(t, first.Active)

	second, err := store.GetOrCreateByEmail(ctx, "jane@example.org")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same email must map to the same account")

	var count int64
	require.NoError(t, store.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateByEmailEmpty(t *testing.T) {
	store := NewGormStore(setupTestDB(t))

	_, err := store.GetOrCreateByEmail(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyEmail)
}

func TestAddToGroup(t *testing.T) {
	store := NewGormStore(setupTestDB(t))
	ctx := context.Background()

	user, err := store.GetOrCreateByEmail(ctx, "jane@example.org")
	require.NoError(t, err)

	require.NoError(t, store.AddToGroup(ctx, user, "admins"))
	// second add is a no-op
	require.NoError(t, store.AddToGroup(ctx, user, "admins"))

	var memberships int64
	require.NoError(t, store.db.Model(&models.UserGroup{}).
		Where("user_id = ?", user.ID).Count(&memberships).Error)
	assert.Equal(t, int64(1), memberships)

	var group models.Group
	require.NoError(t, store.db.Where("name = ?", "admins").First(&group).Error)
}

func TestUpdateIdentity(t *testing.T) {
	store := NewGormStore(setupTestDB(t))
	ctx := context.Background()

	user, err := store.GetOrCreateByEmail(ctx, "jane@example.org")
	require.NoError(t, err)

	err = store.UpdateIdentity(ctx, user, "corp-sso", "sub-123", "Jane", "Doe")
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, store.db.First(&stored, user.ID).Error)
	assert.Equal(t, "corp-sso", stored.ProviderName)
	assert.Equal(t, "sub-123", stored.Subject)
	assert.Equal(t, "Jane", stored.FirstName)
	assert.Equal(t, "Doe", stored.LastName)
}
