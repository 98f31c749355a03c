package models

import "time"

// ExamType identifies which assessment a grade belongs to.
type ExamType string

const (
	ExamTypeMidterm ExamType = "MIDTERM"
	ExamTypeFinal   ExamType = "FINAL"
)

// Grade is a numeric score between 0 and 10 for one exam of one class.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	ExamType  ExamType  `db:"exam_type" json:"exam_type"`
	Score     float64   `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Passed reports whether the score meets the given pass mark.
func (g Grade) Passed(passMark float64) bool {
	return g.Score >= passMark
}
