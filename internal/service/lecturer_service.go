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

type lecturerRepository interface {
	List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, int, error)
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
	Update(ctx context.Context, lecturer *models.Lecturer) error
}

// CreateLecturerRequest captures creation payload.
type CreateLecturerRequest struct {
	FullName  string  `json:"full_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     string  `json:"phone" validate:"required"`
	Specialty string  `json:"specialty" validate:"required"`
	UserID    *string `json:"user_id"`
}

// UpdateLecturerRequest modifies lecturer fields.
type UpdateLecturerRequest struct {
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Specialty string `json:"specialty" validate:"required"`
}

// LecturerService coordinates lecturer profile operations.
type LecturerService struct {
	repo      lecturerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs LecturerService.
func NewLecturerService(repo lecturerRepository, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{repo: repo, validator: validate, logger: logger}
}

// List returns lecturers with pagination metadata.
func (s *LecturerService) List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, *models.Pagination, error) {
	lecturers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
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
	return lecturers, pagination, nil
}

// Get returns a lecturer by ID.
func (s *LecturerService) Get(ctx context.Context, id string) (*models.Lecturer, error) {
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}

// Create registers a new lecturer.
func (s *LecturerService) Create(ctx context.Context, req CreateLecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}

	now := time.Now()
	lecturer := &models.Lecturer{
		UserID:    req.UserID,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		Specialty: req.Specialty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, lecturer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecturer")
	}
	s.logger.Info("lecturer created", zap.String("lecturer_id", lecturer.ID))
	return lecturer, nil
}

// Update modifies a lecturer profile.
func (s *LecturerService) Update(ctx context.Context, id string, req UpdateLecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}

	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}

	lecturer.FullName = req.FullName
	lecturer.Email = req.Email
	lecturer.Phone = req.Phone
	lecturer.Specialty = req.Specialty
	lecturer.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, lecturer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecturer")
	}
	return lecturer, nil
}
