package models

import "time"

// Reservation is a leave-of-absence tied to one enrollment. RemainingSessions
// is snapshotted at request time; ExpiresAt is creation plus the configured
// validity (one year).
type Reservation struct {
	ID                string            `db:"id" json:"id"`
	EnrollmentID      string            `db:"enrollment_id" json:"enrollment_id"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	RemainingSessions int               `db:"remaining_sessions" json:"remaining_sessions"`
	ExpiresAt         time.Time         `db:"expires_at" json:"expires_at"`
	Status            ReservationStatus `db:"status" json:"status"`
	ApprovedBy        *string           `db:"approved_by" json:"approved_by,omitempty"`
	Reason            *string           `db:"reason" json:"reason,omitempty"`
}

// ReservationDetail enriches Reservation with enrollment context.
type ReservationDetail struct {
	Reservation
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	ClassID     string `db:"class_id" json:"class_id"`
	CourseID    string `db:"course_id" json:"course_id"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// ReservationFilter provides filters for listing reservations.
type ReservationFilter struct {
	EnrollmentID string
	StudentID    string
	Status       ReservationStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
