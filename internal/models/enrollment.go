package models

import "time"

// Enrollment captures a student's registration in a class. Registration and
// payment status move independently; cancelled and completed rows persist as
// history and are never deleted.
type Enrollment struct {
	ID            string             `db:"id" json:"id"`
	StudentID     string             `db:"student_id" json:"student_id"`
	ClassID       string             `db:"class_id" json:"class_id"`
	RegisteredAt  time.Time          `db:"registered_at" json:"registered_at"`
	Status        RegistrationStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus      `db:"payment_status" json:"payment_status"`
	Type          RegistrationType   `db:"type" json:"type"`
	CancelledAt   *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason  *string            `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// EnrollmentDetail enriches Enrollment with student, class and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseID    string `db:"course_id" json:"course_id"`
	CourseName  string `db:"course_name" json:"course_name"`
	TuitionFee  int64  `db:"tuition_fee" json:"tuition_fee"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ClassID   string
	Status    RegistrationStatus
	Type      RegistrationType
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ChangeClassResult reports the outcome of a class change, including the
// monetary settlement the student still owes or was refunded.
type ChangeClassResult struct {
	Enrollment *EnrollmentDetail `json:"enrollment"`
	FeeDelta   int64             `json:"fee_delta"`
	// Payment is set when FeeDelta > 0 and an external payment was started.
	Payment *Payment `json:"payment,omitempty"`
	// WalletCredited is set when FeeDelta < 0 and the wallet was refunded.
	WalletCredited int64 `json:"wallet_credited,omitempty"`
}
