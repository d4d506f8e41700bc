// Package testutil provides shared helpers for repository tests.
//
// Repository tests run against a sqlmock stub connection, so the suite needs
// no running database. The helpers register cleanup that asserts every
// declared expectation was met before the connection is closed.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// NewSQLMock returns a stub *sql.DB with its expectation controller. The
// connection is closed and the expectations are verified when the test ends.
func NewSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return db, mock
}
