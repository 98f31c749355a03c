package models

import "time"

// WalletTransactionType identifies the direction and origin of a wallet entry.
type WalletTransactionType string

const (
	WalletTxCredit       WalletTransactionType = "CREDIT"
	WalletTxDebit        WalletTransactionType = "DEBIT"
	WalletTxChangeRefund WalletTransactionType = "CHANGE_REFUND"
)

// WalletTransaction is one ledger entry against a student's wallet balance.
// The balance itself lives on the student row; the ledger preserves history.
type WalletTransaction struct {
	ID           string                `db:"id" json:"id"`
	StudentID    string                `db:"student_id" json:"student_id"`
	Type         WalletTransactionType `db:"type" json:"type"`
	Amount       int64                 `db:"amount" json:"amount"`
	EnrollmentID *string               `db:"enrollment_id" json:"enrollment_id,omitempty"`
	PaymentID    *string               `db:"payment_id" json:"payment_id,omitempty"`
	Note         *string               `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time             `db:"created_at" json:"created_at"`
}
