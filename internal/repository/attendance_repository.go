package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/izone-edu/izone-api/internal/models"
)

// AttendanceRepository handles persistence of attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByStudentAndClass returns a student's attendance records across all
// sessions of a class.
func (r *AttendanceRepository) ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.student_id, a.session_id, a.present, a.note, a.created_at,
        s.date AS session_date, s.status AS session_status
        FROM attendances a
        JOIN sessions s ON s.id = a.session_id
        WHERE a.student_id = $1 AND s.class_id = $2
        ORDER BY s.date`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, classID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListBySession returns attendance marks for one session.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, session_id, present, note, created_at
        FROM attendances WHERE session_id = $1`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session attendance: %w", err)
	}
	return records, nil
}

// CountPresent returns how many held sessions of the class the student
// attended.
func (r *AttendanceRepository) CountPresent(ctx context.Context, studentID, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM attendances a
        JOIN sessions s ON s.id = a.session_id
        WHERE a.student_id = $1 AND s.class_id = $2 AND a.present = TRUE AND s.status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, classID, models.SessionStatusHappened); err != nil {
		return 0, fmt.Errorf("count attended sessions: %w", err)
	}
	return count, nil
}

// Mark records an attendance flag, replacing a previous mark for the same
// student and session.
func (r *AttendanceRepository) Mark(ctx context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendances (id, student_id, session_id, present, note, created_at)
        VALUES (:id, :student_id, :session_id, :present, :note, :created_at)
        ON CONFLICT (student_id, session_id)
        DO UPDATE SET present = EXCLUDED.present, note = EXCLUDED.note`
	if _, err := r.db.NamedExecContext(ctx, query, attendance); err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}
	return nil
}
