package identity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apierr "github.com/arga-sso/ssoauthority/internal/errors"

	"github.com/arga-sso/ssoauthority/internal/db"
	"github.com/arga-sso/ssoauthority/internal/models"
)

// Broker-backed paths (Firebase verification, Google code exchange)
// require a live OIDC issuer to discover against and have no tests in
// this repository; here we cover the
// network-free parts: password resolution and the shared external-claim
// resolution order.

func newSQLMockResolver(t *testing.T) (*Resolver, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	users := db.NewUserStore(db.NewDatabaseForTesting(sqlDB))
	return &Resolver{users: users}, mock
}

func TestResolvePassword_Success(t *testing.T) {
	r, mock := newSQLMockResolver(t)
	now := time.Now().UTC()

	userRows := sqlmock.NewRows([]string{"id", "display_name", "email", "phone", "role", "status", "avatar_url", "created_at", "updated_at", "deleted_at"}).
		AddRow("user-1", "Alice", "alice@example.com", nil, models.RoleUser, models.StatusActive, nil, now, now, nil)
	mock.ExpectQuery("SELECT .* FROM users WHERE email").WithArgs("alice@example.com").WillReturnRows(userRows)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	bindingRows := sqlmock.NewRows([]string{"id", "user_id", "kind", "subject_id", "password_hash", "last_used_at", "created_at"}).
		AddRow("binding-1", "user-1", models.ProviderEmail, "alice@example.com", string(hash), nil, now)
	mock.ExpectQuery("SELECT .* FROM auth_providers").WithArgs(models.ProviderEmail, "alice@example.com").WillReturnRows(bindingRows)

	mock.ExpectExec("UPDATE auth_providers SET last_used_at").WithArgs(sqlmock.AnyArg(), "binding-1").WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := r.ResolvePassword(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestResolvePassword_WrongPasswordIsInvalidCredentials(t *testing.T) {
	r, mock := newSQLMockResolver(t)
	now := time.Now().UTC()

	userRows := sqlmock.NewRows([]string{"id", "display_name", "email", "phone", "role", "status", "avatar_url", "created_at", "updated_at", "deleted_at"}).
		AddRow("user-1", "Alice", "alice@example.com", nil, models.RoleUser, models.StatusActive, nil, now, now, nil)
	mock.ExpectQuery("SELECT .* FROM users WHERE email").WithArgs("alice@example.com").WillReturnRows(userRows)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	bindingRows := sqlmock.NewRows([]string{"id", "user_id", "kind", "subject_id", "password_hash", "last_used_at", "created_at"}).
		AddRow("binding-1", "user-1", models.ProviderEmail, "alice@example.com", string(hash), nil, now)
	mock.ExpectQuery("SELECT .* FROM auth_providers").WithArgs(models.ProviderEmail, "alice@example.com").WillReturnRows(bindingRows)

	_, err = r.ResolvePassword(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	appErr, ok := err.(*apierr.AppError)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeInvalidCredentials, appErr.Code)
}

func TestResolvePassword_UnknownEmailIsInvalidCredentials(t *testing.T) {
	r, mock := newSQLMockResolver(t)
	mock.ExpectQuery("SELECT .* FROM users WHERE email").WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

	_, err := r.ResolvePassword(context.Background(), "nobody@example.com", "anything")
	require.Error(t, err)
	appErr, ok := err.(*apierr.AppError)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeInvalidCredentials, appErr.Code)
}

func TestResolveExternal_ExistingBindingWins(t *testing.T) {
	r, mock := newSQLMockResolver(t)
	now := time.Now().UTC()

	bindingRows := sqlmock.NewRows([]string{"id", "user_id", "kind", "subject_id", "password_hash", "last_used_at", "created_at"}).
		AddRow("binding-1", "user-1", models.ProviderGoogle, "google-sub", nil, nil, now)
	mock.ExpectQuery("SELECT .* FROM auth_providers").WithArgs(models.ProviderGoogle, "google-sub").WillReturnRows(bindingRows)

	userRows := sqlmock.NewRows([]string{"id", "display_name", "email", "phone", "role", "status", "avatar_url", "created_at", "updated_at", "deleted_at"}).
		AddRow("user-1", "Alice", "alice@example.com", nil, models.RoleUser, models.StatusActive, nil, now, now, nil)
	mock.ExpectQuery("SELECT .* FROM users WHERE id").WithArgs("user-1").WillReturnRows(userRows)

	mock.ExpectExec("UPDATE auth_providers SET last_used_at").WithArgs(sqlmock.AnyArg(), "binding-1").WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := r.resolveExternal(context.Background(), models.ProviderGoogle,&externalClaims{Subject: "google-sub", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestResolveExternal_NoBindingNoEmailMatchIsUserNotRegistered(t *testing.T) {
	r, mock := newSQLMockResolver(t)
	mock.ExpectQuery("SELECT .* FROM auth_providers").WithArgs(models.ProviderGoogle, "google-sub").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT .* FROM users WHERE email").WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := r.resolveExternal(context.Background(), models.ProviderGoogle,&externalClaims{Subject: "google-sub", Email: "ghost@example.com"})
	require.Error(t, err)
	appErr, ok := err.(*apierr.AppError)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeUserNotRegistered, appErr.Code)
}
