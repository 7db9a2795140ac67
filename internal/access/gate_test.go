package access

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierr "github.com/arga-sso/ssoauthority/internal/errors"

	"github.com/arga-sso/ssoauthority/internal/db"
)

func newTestGate(t *testing.T) (*Gate, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewGate(db.NewApplicationStore(db.NewDatabaseForTesting(sqlDB))), mock
}

func TestCheck_EmptyClientCodeIsSSOOnly(t *testing.T) {
	g, _ := newTestGate(t)
	decision, err := g.Check(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.True(t, decision.SSOOnly)
	assert.Nil(t, decision.Application)
}

func TestCheck_UnknownAppIsAppNotFound(t *testing.T) {
	g, mock := newTestGate(t)
	mock.ExpectQuery("SELECT .* FROM applications WHERE code").WithArgs("ghost-app").WillReturnRows(sqlmock.NewRows(nil))

	_, err := g.Check(context.Background(), "user-1", "ghost-app")
	require.Error(t, err)
	appErr := err.(*apierr.AppError)
	assert.Equal(t, apierr.CodeAppNotFound, appErr.Code)
}

func TestCheck_InactiveAppIsAppNotFound(t *testing.T) {
	g, mock := newTestGate(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "active", "single_session", "created_at", "updated_at"}).
		AddRow("app-1", "mail-client", "Mail", false, false, now, now)
	mock.ExpectQuery("SELECT .* FROM applications WHERE code").WithArgs("mail-client").WillReturnRows(rows)

	_, err := g.Check(context.Background(), "user-1", "mail-client")
	require.Error(t, err)
	appErr := err.(*apierr.AppError)
	assert.Equal(t, apierr.CodeAppNotFound, appErr.Code)
}

func TestCheck_UngrantedAppIsAppNotPermitted(t *testing.T) {
	g, mock := newTestGate(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "active", "single_session", "created_at", "updated_at"}).
		AddRow("app-1", "mail-client", "Mail", true, false, now, now)
	mock.ExpectQuery("SELECT .* FROM applications WHERE code").WithArgs("mail-client").WillReturnRows(rows)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("user-1", "app-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := g.Check(context.Background(), "user-1", "mail-client")
	require.Error(t, err)
	appErr := err.(*apierr.AppError)
	assert.Equal(t, apierr.CodeAppNotPermitted, appErr.Code)
}

func TestCheck_GrantedAppReturnsDecision(t *testing.T) {
	g, mock := newTestGate(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "active", "single_session", "created_at", "updated_at"}).
		AddRow("app-1", "mail-client", "Mail", true, true, now, now)
	mock.ExpectQuery("SELECT .* FROM applications WHERE code").WithArgs("mail-client").WillReturnRows(rows)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("user-1", "app-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	decision, err := g.Check(context.Background(), "user-1", "mail-client")
	require.NoError(t, err)
	assert.False(t, decision.SSOOnly)
	require.NotNil(t, decision.Application)
	assert.True(t, decision.Application.SingleSession)
}
