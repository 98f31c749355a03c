package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/izone-edu/izone-api/internal/models"
)

// ClassRepository handles persistence of scheduled classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classDetailColumns = `c.id, c.course_id, c.lecturer_id, c.location_id, c.start_date, c.end_date,
        c.weekly_schedule, c.session_duration, c.capacity, c.status, c.created_at, c.updated_at,
        k.name AS course_name, k.tuition_fee, k.session_count, l.full_name AS lecturer_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id AND e.status = 'STUDYING') AS occupancy`

// List returns classes filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	base := `FROM classes c
LEFT JOIN courses k ON k.id = c.course_id
LEFT JOIN lecturers l ON l.id = c.lecturer_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("c.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("c.lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date":  "c.start_date",
		"course_name": "k.name",
		"status":      "c.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.start_date"
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		classDetailColumns, base+clause, orderBy, order, size, offset)

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, course_id, lecturer_id, location_id, start_date, end_date, weekly_schedule,
        session_duration, capacity, status, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class with course, lecturer and occupancy context.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes c
        LEFT JOIN courses k ON k.id = c.course_id
        LEFT JOIN lecturers l ON l.id = c.lecturer_id
        WHERE c.id = $1`, classDetailColumns)
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountStudying returns the current occupancy of a class.
func (r *ClassRepository) CountStudying(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, models.RegistrationStatusStudying); err != nil {
		return 0, fmt.Errorf("count studying enrollments: %w", err)
	}
	return count, nil
}

// Create persists a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	if class.Status == "" {
		class.Status = models.ClassStatusNotStarted
	}
	const query = `INSERT INTO classes (id, course_id, lecturer_id, location_id, start_date, end_date,
        weekly_schedule, session_duration, capacity, status, created_at, updated_at)
        VALUES (:id, :course_id, :lecturer_id, :location_id, :start_date, :end_date,
        :weekly_schedule, :session_duration, :capacity, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update persists mutable class fields.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET lecturer_id = :lecturer_id, location_id = :location_id,
        start_date = :start_date, end_date = :end_date, weekly_schedule = :weekly_schedule,
        session_duration = :session_duration, capacity = :capacity, status = :status,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// UpdateStatus transitions a class to the given status.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	const query = `UPDATE classes SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class status: %w", err)
	}
	return nil
}
