package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/izone-edu/izone-api/internal/models"
)

// WalletRepository handles the student wallet ledger. Balance mutations and
// their ledger entries always commit together.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository constructs the repository.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// ListByStudent returns the ledger history for a student, newest first.
func (r *WalletRepository) ListByStudent(ctx context.Context, studentID string) ([]models.WalletTransaction, error) {
	const query = `SELECT id, student_id, type, amount, enrollment_id, payment_id, note, created_at
        FROM wallet_transactions WHERE student_id = $1 ORDER BY created_at DESC`
	var transactions []models.WalletTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, studentID); err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	return transactions, nil
}

// Balance returns the student's current wallet balance.
func (r *WalletRepository) Balance(ctx context.Context, studentID string) (int64, error) {
	const query = `SELECT wallet_balance FROM students WHERE id = $1`
	var balance int64
	if err := r.db.GetContext(ctx, &balance, query, studentID); err != nil {
		return 0, err
	}
	return balance, nil
}

// Credit adds funds to the wallet and records the ledger entry atomically.
func (r *WalletRepository) Credit(ctx context.Context, entry *models.WalletTransaction) error {
	return r.apply(ctx, entry, entry.Amount)
}

// Debit removes funds from the wallet and records the ledger entry
// atomically. The balance is checked under lock; ErrInsufficientFunds is
// returned when it would go negative.
func (r *WalletRepository) Debit(ctx context.Context, entry *models.WalletTransaction) error {
	return r.apply(ctx, entry, -entry.Amount)
}

func (r *WalletRepository) apply(ctx context.Context, entry *models.WalletTransaction, delta int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wallet tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var balance int64
	if err := tx.GetContext(ctx, &balance,
		`SELECT wallet_balance FROM students WHERE id = $1 FOR UPDATE`, entry.StudentID); err != nil {
		return fmt.Errorf("lock wallet: %w", err)
	}
	if balance+delta < 0 {
		return ErrInsufficientFunds
	}

	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	const ledger = `INSERT INTO wallet_transactions (id, student_id, type, amount, enrollment_id, payment_id, note, created_at)
        VALUES (:id, :student_id, :type, :amount, :enrollment_id, :payment_id, :note, :created_at)`
	if _, err := tx.NamedExecContext(ctx, ledger, entry); err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE students SET wallet_balance = wallet_balance + $2, updated_at = $3 WHERE id = $1`,
		entry.StudentID, delta, now); err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	return tx.Commit()
}
