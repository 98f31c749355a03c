package models

import "time"

// Course is the template a class is scheduled from. Fees are VND with no
// fractional subunit.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	TuitionFee   int64     `db:"tuition_fee" json:"tuition_fee"`
	MaterialFee  int64     `db:"material_fee" json:"material_fee"`
	SessionCount int       `db:"session_count" json:"session_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
