package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arga-sso/ssoauthority/internal/models"
)

func TestGetByEmail_Found(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	store := NewUserStore(NewDatabaseForTesting(sqlDB))

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "display_name", "email", "phone", "role", "status", "avatar_url", "created_at", "updated_at", "deleted_at"}).
		AddRow("user-1", "Alice", "alice@example.com", nil, models.RoleUser, models.StatusActive, nil, now, now, nil)

	mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	user, err := store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_NotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	store := NewUserStore(NewDatabaseForTesting(sqlDB))

	mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	user, err := store.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	store := &UserStore{}
	binding := &models.AuthProviderBinding{PasswordHash: string(hash)}

	assert.True(t, store.VerifyPassword(binding, "correct-horse"))
	assert.False(t, store.VerifyPassword(binding, "wrong"))
	assert.False(t, store.VerifyPassword(nil, "correct-horse"))
}

func TestCreateBinding(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	store := NewUserStore(NewDatabaseForTesting(sqlDB))

	mock.ExpectExec("INSERT INTO auth_providers").
		WithArgs(sqlmock.AnyArg(), "user-1", models.ProviderGoogle, "google-sub-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	binding, err := store.CreateBinding(context.Background(), "user-1", models.ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", binding.UserID)
	assert.Equal(t, models.ProviderGoogle, binding.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
