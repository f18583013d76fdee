package writer

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
	"github.com/chenzhangda16/payments-engine/internal/engine/amount"
	"github.com/chenzhangda16/payments-engine/internal/engine/retry"
)

const run = "9b2f4c8e-0d55-4b1a-8d8c-1f1e5c3b7a10"

func newWriter(t *testing.T) (*PGWriter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	w := NewPGWriterFromDB(db, run, nil)
	w.retry = retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	return w, mock
}

func report() []account.Snapshot {
	return []account.Snapshot{
		{Client: 1, Available: amount.MustParse("12"), Held: amount.Zero, Total: amount.MustParse("12")},
		{Client: 3, Available: amount.Zero, Held: amount.Zero, Total: amount.Zero, Locked: true},
	}
}

func TestEnsureSchema(t *testing.T) {
	w, mock := newWriter(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS account_snapshots").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, w.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmitInsertsInOneTransaction(t *testing.T) {
	w, mock := newWriter(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertSnapshot))
	prep.ExpectExec().WithArgs(run, int32(1), "12.0000", "0.0000", "12.0000", false).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(run, int32(3), "0.0000", "0.0000", "0.0000", true).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, w.Emit(context.Background(), report()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmitRetriesWholeTransaction(t *testing.T) {
	w, mock := newWriter(t)
	errConn := errors.New("connection reset")

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertSnapshot))
	prep.ExpectExec().WillReturnError(errConn)
	mock.ExpectRollback()

	mock.ExpectBegin()
	prep = mock.ExpectPrepare(regexp.QuoteMeta(insertSnapshot))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, w.Emit(context.Background(), report()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPGWriterRequiresDSN(t *testing.T) {
	_, err := NewPGWriter(context.Background(), "", run, nil)
	assert.Error(t, err)
}
