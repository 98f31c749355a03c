package models

import "time"

// Class is a scheduled offering of a course. Capacity is nil for unlimited
// seats. WeeklySchedule is a display string such as "Mon, Wed, Fri".
type Class struct {
	ID              string      `db:"id" json:"id"`
	CourseID        string      `db:"course_id" json:"course_id"`
	LecturerID      string      `db:"lecturer_id" json:"lecturer_id"`
	LocationID      *string     `db:"location_id" json:"location_id,omitempty"`
	StartDate       time.Time   `db:"start_date" json:"start_date"`
	EndDate         *time.Time  `db:"end_date" json:"end_date,omitempty"`
	WeeklySchedule  string      `db:"weekly_schedule" json:"weekly_schedule"`
	SessionDuration float64     `db:"session_duration" json:"session_duration"`
	Capacity        *int        `db:"capacity" json:"capacity,omitempty"`
	Status          ClassStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassDetail enriches Class with course and lecturer context plus the
// current occupancy (count of STUDYING enrollments).
type ClassDetail struct {
	Class
	CourseName   string `db:"course_name" json:"course_name"`
	TuitionFee   int64  `db:"tuition_fee" json:"tuition_fee"`
	SessionCount int    `db:"session_count" json:"session_count"`
	LecturerName string `db:"lecturer_name" json:"lecturer_name"`
	Occupancy    int    `db:"occupancy" json:"occupancy"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	CourseID   string
	LecturerID string
	Status     ClassStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
