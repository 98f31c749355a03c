package models

import "time"

// Payment is a transaction record against an enrollment. Amount is VND.
type Payment struct {
	ID           string            `db:"id" json:"id"`
	StudentID    string            `db:"student_id" json:"student_id"`
	EnrollmentID *string           `db:"enrollment_id" json:"enrollment_id,omitempty"`
	Amount       int64             `db:"amount" json:"amount"`
	Reference    string            `db:"reference" json:"reference"`
	Method       string            `db:"method" json:"method"`
	Status       TransactionStatus `db:"status" json:"status"`
	PayURL       string            `db:"pay_url" json:"pay_url,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	SettledAt    *time.Time        `db:"settled_at" json:"settled_at,omitempty"`
}

// PaymentRequest is what gets handed to an external payment provider.
type PaymentRequest struct {
	StudentID    string
	EnrollmentID string
	Amount       int64
	Description  string
}

// PaymentIntent is the provider's answer: a reference to reconcile the
// callback against and a URL the student pays at.
type PaymentIntent struct {
	Reference string `json:"reference"`
	PayURL    string `json:"pay_url"`
}

// PaymentFilter provides filters for listing payments.
type PaymentFilter struct {
	StudentID    string
	EnrollmentID string
	Status       TransactionStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
