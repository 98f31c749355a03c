package models

import "time"

// Session is one meeting of a class. SubstituteLecturerID and LocationID
// override the class defaults for that day only.
type Session struct {
	ID                   string        `db:"id" json:"id"`
	ClassID              string        `db:"class_id" json:"class_id"`
	Date                 time.Time     `db:"date" json:"date"`
	StartTime            string        `db:"start_time" json:"start_time"`
	EndTime              string        `db:"end_time" json:"end_time"`
	SubstituteLecturerID *string       `db:"substitute_lecturer_id" json:"substitute_lecturer_id,omitempty"`
	LocationID           *string       `db:"location_id" json:"location_id,omitempty"`
	Status               SessionStatus `db:"status" json:"status"`
}

// SessionFilter defines filter criteria for listing sessions.
type SessionFilter struct {
	ClassID   string
	Status    SessionStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
