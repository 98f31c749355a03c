package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type locationRepository interface {
	List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error)
	FindByID(ctx context.Context, id string) (*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Update(ctx context.Context, location *models.Location) error
}

// CreateLocationRequest captures creation payload.
type CreateLocationRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Capacity *int   `json:"capacity" validate:"omitempty,gt=0"`
}

// UpdateLocationRequest modifies location fields.
type UpdateLocationRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Capacity *int   `json:"capacity" validate:"omitempty,gt=0"`
}

// LocationService coordinates teaching site operations.
type LocationService struct {
	repo      locationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs LocationService.
func NewLocationService(repo locationRepository, validate *validator.Validate, logger *zap.Logger) *LocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{repo: repo, validator: validate, logger: logger}
}

// List returns locations with pagination metadata.
func (s *LocationService) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, *models.Pagination, error) {
	locations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return locations, pagination, nil
}

// Get returns a location by ID.
func (s *LocationService) Get(ctx context.Context, id string) (*models.Location, error) {
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return location, nil
}

// Create registers a new teaching site.
func (s *LocationService) Create(ctx context.Context, req CreateLocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}

	now := time.Now()
	location := &models.Location{
		Name:      req.Name,
		Address:   req.Address,
		Capacity:  req.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}
	s.logger.Info("location created", zap.String("location_id", location.ID))
	return location, nil
}

// Update modifies a teaching site.
func (s *LocationService) Update(ctx context.Context, id string, req UpdateLocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}

	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}

	location.Name = req.Name
	location.Address = req.Address
	location.Capacity = req.Capacity
	location.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update location")
	}
	return location, nil
}
