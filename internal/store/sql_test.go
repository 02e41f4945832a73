package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := &SQLStore{
		db:     sqlx.NewDb(mockDB, "sqlite3"),
		driver: "sqlite3",
		logger: zaptest.NewLogger(t),
		ttl:    time.Hour,
		stopCh: make(chan struct{}),
	}
	t.Cleanup(func() { _ = mockDB.Close() })
	return s, mock
}

func TestSQLStoreSet(t *testing.T) {
	s, mock := newTestSQLStore(t)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("session:abc", "session:", `{"id":"abc"}`, sqlmock.AnyArg(), `{"id":"abc"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Set(context.Background(), "session:abc", []byte(`{"id":"abc"}`), 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGet(t *testing.T) {
	s, mock := newTestSQLStore(t)

	rows := sqlmock.NewRows([]string{"payload", "expires_at"}).
		AddRow(`{"id":"abc"}`, time.Now().UTC().Add(time.Hour))
	mock.ExpectQuery("SELECT payload, expires_at FROM records").
		WithArgs("session:abc").
		WillReturnRows(rows)

	got, err := s.Get(context.Background(), "session:abc")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"id":"abc"}`), got)
}

func TestSQLStoreGetMissing(t *testing.T) {
	s, mock := newTestSQLStore(t)

	mock.ExpectQuery("SELECT payload, expires_at FROM records").
		WithArgs("session:gone").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "expires_at"}))

	_, err := s.Get(context.Background(), "session:gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreGetExpired(t *testing.T) {
	s, mock := newTestSQLStore(t)

	// Row exists but its expiry has passed; lazy expiry treats it as gone.
	rows := sqlmock.NewRows([]string{"payload", "expires_at"}).
		AddRow(`{"id":"abc"}`, time.Now().UTC().Add(-time.Minute))
	mock.ExpectQuery("SELECT payload, expires_at FROM records").
		WithArgs("session:old").
		WillReturnRows(rows)

	_, err := s.Get(context.Background(), "session:old")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreScanByPrefix(t *testing.T) {
	s, mock := newTestSQLStore(t)

	rows := sqlmock.NewRows([]string{"key"}).
		AddRow("request:1").
		AddRow("request:2")
	mock.ExpectQuery("SELECT key FROM records").
		WithArgs("request:%", sqlmock.AnyArg()).
		WillReturnRows(rows)

	keys, err := s.ScanByPrefix(context.Background(), "request:")
	require.NoError(t, err)
	require.Equal(t, []string{"request:1", "request:2"}, keys)
}

func TestKindOf(t *testing.T) {
	require.Equal(t, "session:", kindOf("session:abc"))
	require.Equal(t, "unknown", kindOf("plainkey"))
}
