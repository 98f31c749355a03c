package models

import "time"

// Lecturer represents a teaching staff member.
type Lecturer struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Specialty string    `db:"specialty" json:"specialty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerFilter captures filtering criteria for listing lecturers.
type LecturerFilter struct {
	Search    string
	Specialty string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
