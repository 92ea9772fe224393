package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandbet/deposit-service/internal/domain/entities"
)

func newMockRepo(t *testing.T) (*DepositRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDepositRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestUpdateStatus_LocksRowForTransition(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM deposits WHERE transaction_id = \$1 FOR UPDATE`).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("awaiting_provider"))
	mock.ExpectExec(`UPDATE deposits SET status = \$2, failure_reason = \$3, updated_at = \$4 WHERE transaction_id = \$1`).
		WithArgs("tx-1", entities.DepositStatusSucceeded, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatusByTransactionID(context.Background(), "tx-1", entities.DepositStatusSucceeded, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_TerminalRowLeftUntouched(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM deposits WHERE transaction_id = \$1 FOR UPDATE`).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("succeeded"))
	mock.ExpectCommit()

	err := repo.UpdateStatusByTransactionID(context.Background(), "tx-1", entities.DepositStatusFailed, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_InvalidTransitionRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM deposits WHERE transaction_id = \$1 FOR UPDATE`).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("awaiting_provider"))
	mock.ExpectRollback()

	err := repo.UpdateStatusByTransactionID(context.Background(), "tx-1", entities.DepositStatusInitiated, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_UnknownTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM deposits WHERE transaction_id = \$1 FOR UPDATE`).
		WithArgs("tx-missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := repo.UpdateStatusByTransactionID(context.Background(), "tx-missing", entities.DepositStatusSucceeded, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
