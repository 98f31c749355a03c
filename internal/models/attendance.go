package models

import "time"

// Attendance marks whether a student was present at one session.
type Attendance struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Present   bool      `db:"present" json:"present"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceRecord pairs an attendance mark with its session context.
type AttendanceRecord struct {
	Attendance
	SessionDate   time.Time     `db:"session_date" json:"session_date"`
	SessionStatus SessionStatus `db:"session_status" json:"session_status"`
}
