package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByCode_Found(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	store := NewApplicationStore(NewDatabaseForTesting(sqlDB))

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "active", "single_session", "created_at", "updated_at"}).
		AddRow("app-1", "mail-client", "Mail Client", true, false, now, now)

	mock.ExpectQuery("SELECT .* FROM applications WHERE code").
		WithArgs("mail-client").
		WillReturnRows(rows)

	app, err := store.GetByCode(context.Background(), "mail-client")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "app-1", app.ID)
	assert.True(t, app.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserHasApplication(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	store := NewApplicationStore(NewDatabaseForTesting(sqlDB))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("user-1", "app-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.UserHasApplication(context.Background(), "user-1", "app-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllowedCodes(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	store := NewApplicationStore(NewDatabaseForTesting(sqlDB))

	mock.ExpectQuery("SELECT a.code FROM applications").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("mail-client").AddRow("docs"))

	codes, err := store.ListAllowedCodes(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"mail-client", "docs"}, codes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantApplication(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	store := NewApplicationStore(NewDatabaseForTesting(sqlDB))

	mock.ExpectExec("INSERT INTO user_applications").
		WithArgs("user-1", "app-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.GrantApplication(context.Background(), "user-1", "app-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
