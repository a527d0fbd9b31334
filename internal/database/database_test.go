// internal/database/database_test.go
//
// Unit-tests for ping retries and migrations using sqlmock.

package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return sqlx.NewDb(raw, "mysql"), mock
}

func TestConfigure_RetriesPing(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	opts := Options{Retries: 2, RetryBackoff: time.Millisecond}
	if err := configure(context.Background(), db, opts); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfigure_GivesUp(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	mock.ExpectPing().WillReturnError(errors.New("still down"))

	err := configure(context.Background(), db, Options{Retries: 1, RetryBackoff: time.Millisecond})
	if err == nil {
		t.Fatal("expected ping error")
	}
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS a (id INT)`,
		`CREATE TABLE IF NOT EXISTS b (id INT)`,
	}
	mock.ExpectExec(regexp.QuoteMeta(stmts[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(stmts[1])).WillReturnError(errors.New("syntax"))

	err := Migrate(context.Background(), db, stmts)
	if err == nil || err.Error() != "migration 2: syntax" {
		t.Fatalf("err = %v, want migration 2 failure", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
