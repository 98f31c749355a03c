package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/izone-edu/izone-api/internal/models"
)

// GradeRepository handles persistence of exam grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListByStudentAndClass returns all grades a student has for a class.
func (r *GradeRepository) ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, class_id, exam_type, score, created_at, updated_at
        FROM grades WHERE student_id = $1 AND class_id = $2 ORDER BY exam_type`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, classID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListByClass returns all grades recorded for a class.
func (r *GradeRepository) ListByClass(ctx context.Context, classID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, class_id, exam_type, score, created_at, updated_at
        FROM grades WHERE class_id = $1 ORDER BY student_id, exam_type`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, classID); err != nil {
		return nil, fmt.Errorf("list class grades: %w", err)
	}
	return grades, nil
}

// AverageScore returns the average grade a student earned in a class. The
// boolean is false when no grades are recorded.
func (r *GradeRepository) AverageScore(ctx context.Context, studentID, classID string) (float64, bool, error) {
	const query = `SELECT AVG(score) FROM grades WHERE student_id = $1 AND class_id = $2`
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, query, studentID, classID); err != nil {
		return 0, false, fmt.Errorf("average grade: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// Upsert records a grade, replacing any previous score for the same exam.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, class_id, exam_type, score, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :exam_type, :score, :created_at, :updated_at)
        ON CONFLICT (student_id, class_id, exam_type)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}
