package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/izone-edu/izone-api/internal/models"
)

func TestWalletRepositoryCredit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWalletRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(100000))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET wallet_balance = wallet_balance + $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry := &models.WalletTransaction{
		StudentID: "student-1",
		Type:      models.WalletTxCredit,
		Amount:    250000,
	}
	require.NoError(t, repo.Credit(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepositoryDebitInsufficient(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWalletRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(100000))
	mock.ExpectRollback()

	entry := &models.WalletTransaction{
		StudentID: "student-1",
		Type:      models.WalletTxDebit,
		Amount:    500000,
	}
	err := repo.Debit(context.Background(), entry)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepositoryBalance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWalletRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM students WHERE id = $1")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(750000))

	balance, err := repo.Balance(context.Background(), "student-1")
	require.NoError(t, err)
	require.Equal(t, int64(750000), balance)
	require.NoError(t, mock.ExpectationsWereMet())
}
