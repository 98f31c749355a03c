package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/izone-edu/izone-api/internal/models"
)

// ReservationRepository handles persistence of leave-of-absence reservations.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationDetailColumns = `r.id, r.enrollment_id, r.created_at, r.remaining_sessions, r.expires_at,
        r.status, r.approved_by, r.reason,
        e.student_id, s.full_name AS student_name, e.class_id, c.course_id, k.name AS course_name`

const reservationDetailJoins = `FROM reservations r
LEFT JOIN enrollments e ON e.id = r.enrollment_id
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN classes c ON c.id = e.class_id
LEFT JOIN courses k ON k.id = c.course_id`

// List returns reservations filtered by the provided criteria.
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY r.created_at %s LIMIT %d OFFSET %d`,
		reservationDetailColumns, reservationDetailJoins+clause, order, size, offset)

	var reservations []models.ReservationDetail
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", reservationDetailJoins+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}
	return reservations, total, nil
}

// FindByID returns a reservation by its ID.
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	const query = `SELECT id, enrollment_id, created_at, remaining_sessions, expires_at, status, approved_by, reason
        FROM reservations WHERE id = $1`
	var reservation models.Reservation
	if err := r.db.GetContext(ctx, &reservation, query, id); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindDetailByID returns a reservation with enrollment context.
func (r *ReservationRepository) FindDetailByID(ctx context.Context, id string) (*models.ReservationDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.id = $1`, reservationDetailColumns, reservationDetailJoins)
	var detail models.ReservationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateStatus transitions a reservation, recording the reviewing admin.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, approvedBy *string) error {
	const query = `UPDATE reservations SET status = $2, approved_by = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, approvedBy); err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	return nil
}

// ExpireOverdue sweeps approved reservations past their deadline to EXPIRED
// and returns how many rows changed.
func (r *ReservationRepository) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	const query = `UPDATE reservations SET status = $1 WHERE status = $2 AND expires_at <= $3`
	res, err := r.db.ExecContext(ctx, query, models.ReservationStatusExpired, models.ReservationStatusApproved, now)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
