package model

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockStore backs the store with sqlmock so SQL-level failure modes can
// be scripted without a live server.
func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return NewStore(db), mock
}

func TestStoreReadFailureIsNotNotFound(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT .* FROM .users.").
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetUser(uuid.New())
	require.Error(t, err)
	// An I/O failure must stay distinguishable from a missing row: the admin
	// edge maps the former to 500 and the latter to 404.
	require.False(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreEmptyResultMapsToNotFound(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT .* FROM .quotas.").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

	_, err := s.GetQuota(uuid.New())
	require.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListFailurePropagates(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT .* FROM .models.").
		WillReturnError(errors.New("table dropped"))

	_, err := s.GetModels()
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
