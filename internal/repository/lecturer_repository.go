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

// LecturerRepository handles persistence of lecturers.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs the repository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// List returns lecturers filtered by the provided criteria.
func (r *LecturerRepository) List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, int, error) {
	base := `FROM lecturers l`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(l.full_name ILIKE $%d OR l.email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Specialty != "" {
		conditions = append(conditions, fmt.Sprintf("l.specialty = $%d", len(args)+1))
		args = append(args, filter.Specialty)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT l.id, l.user_id, l.full_name, l.email, l.phone, l.specialty, l.created_at, l.updated_at
        %s ORDER BY l.full_name %s LIMIT %d OFFSET %d`, base+clause, order, size, offset)

	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lecturers: %w", err)
	}
	return lecturers, total, nil
}

// FindByID returns a lecturer by its ID.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	const query = `SELECT id, user_id, full_name, email, phone, specialty, created_at, updated_at
        FROM lecturers WHERE id = $1`
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, id); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// Create persists a new lecturer record.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	if lecturer.ID == "" {
		lecturer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lecturer.CreatedAt.IsZero() {
		lecturer.CreatedAt = now
	}
	lecturer.UpdatedAt = now
	const query = `INSERT INTO lecturers (id, user_id, full_name, email, phone, specialty, created_at, updated_at)
        VALUES (:id, :user_id, :full_name, :email, :phone, :specialty, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}

// Update persists mutable lecturer fields.
func (r *LecturerRepository) Update(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lecturers SET full_name = :full_name, email = :email, phone = :phone,
        specialty = :specialty, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("update lecturer: %w", err)
	}
	return nil
}
