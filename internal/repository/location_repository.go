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

// LocationRepository handles persistence of teaching sites.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs the repository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns locations filtered by the provided criteria.
func (r *LocationRepository) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error) {
	base := `FROM locations loc`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(loc.name ILIKE $%d OR loc.address ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf(`SELECT loc.id, loc.name, loc.address, loc.capacity, loc.created_at, loc.updated_at
        %s ORDER BY loc.name %s LIMIT %d OFFSET %d`, base+clause, order, size, offset)

	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count locations: %w", err)
	}
	return locations, total, nil
}

// FindByID returns a location by its ID.
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.Location, error) {
	const query = `SELECT id, name, address, capacity, created_at, updated_at
        FROM locations WHERE id = $1`
	var location models.Location
	if err := r.db.GetContext(ctx, &location, query, id); err != nil {
		return nil, err
	}
	return &location, nil
}

// Create persists a new location record.
func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if location.CreatedAt.IsZero() {
		location.CreatedAt = now
	}
	location.UpdatedAt = now
	const query = `INSERT INTO locations (id, name, address, capacity, created_at, updated_at)
        VALUES (:id, :name, :address, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Update persists mutable location fields.
func (r *LocationRepository) Update(ctx context.Context, location *models.Location) error {
	location.UpdatedAt = time.Now().UTC()
	const query = `UPDATE locations SET name = :name, address = :address,
        capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}
