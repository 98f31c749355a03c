package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type lecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
}

type rosterReader interface {
	RosterByClass(ctx context.Context, classID string) ([]models.EnrollmentDetail, error)
}

// CreateClassRequest captures creation payload.
type CreateClassRequest struct {
	CourseID        string     `json:"course_id" validate:"required"`
	LecturerID      string     `json:"lecturer_id" validate:"required"`
	LocationID      *string    `json:"location_id"`
	StartDate       time.Time  `json:"start_date" validate:"required"`
	EndDate         *time.Time `json:"end_date"`
	WeeklySchedule  string     `json:"weekly_schedule" validate:"required"`
	SessionDuration float64    `json:"session_duration" validate:"gt=0"`
	Capacity        *int       `json:"capacity" validate:"omitempty,gt=0"`
}

// UpdateClassRequest modifies class fields.
type UpdateClassRequest struct {
	LecturerID      string     `json:"lecturer_id" validate:"required"`
	LocationID      *string    `json:"location_id"`
	StartDate       time.Time  `json:"start_date" validate:"required"`
	EndDate         *time.Time `json:"end_date"`
	WeeklySchedule  string     `json:"weekly_schedule" validate:"required"`
	SessionDuration float64    `json:"session_duration" validate:"gt=0"`
	Capacity        *int       `json:"capacity" validate:"omitempty,gt=0"`
}

// ClassService coordinates class scheduling operations.
type ClassService struct {
	repo        classRepository
	courses     courseReader
	lecturers   lecturerReader
	enrollments rosterReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs ClassService. The cache may be nil.
func NewClassService(repo classRepository, courses courseReader, lecturers lecturerReader, enrollments rosterReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, courses: courses, lecturers: lecturers, enrollments: enrollments, cache: cache, validator: validate, logger: logger}
}

func classDetailCacheKey(id string) string {
	return fmt.Sprintf("class:detail:%s", id)
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
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
	return classes, pagination, nil
}

// Get returns detailed class information, served from cache when possible.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	var cached models.ClassDetail
	if hit, err := s.cache.Get(ctx, classDetailCacheKey(id), &cached); err == nil && hit {
		return &cached, nil
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	_ = s.cache.Set(ctx, classDetailCacheKey(id), detail, 0)
	return detail, nil
}

// Create schedules a new class for a course.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.lecturers.FindByID(ctx, req.LecturerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}

	now := time.Now()
	class := &models.Class{
		CourseID:        req.CourseID,
		LecturerID:      req.LecturerID,
		LocationID:      req.LocationID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		WeeklySchedule:  req.WeeklySchedule,
		SessionDuration: req.SessionDuration,
		Capacity:        req.Capacity,
		Status:          models.ClassStatusNotStarted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("course_id", class.CourseID))
	return class, nil
}

// Update modifies an existing class. The course binding is immutable; change
// the course by scheduling a new class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.lecturers.FindByID(ctx, req.LecturerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}

	class.LecturerID = req.LecturerID
	class.LocationID = req.LocationID
	class.StartDate = req.StartDate
	class.EndDate = req.EndDate
	class.WeeklySchedule = req.WeeklySchedule
	class.SessionDuration = req.SessionDuration
	class.Capacity = req.Capacity
	class.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	_ = s.cache.Invalidate(ctx, classDetailCacheKey(id))
	return class, nil
}

// UpdateStatus moves the class through its lifecycle. Finished and cancelled
// classes are terminal.
func (s *ClassService) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) (*models.Class, error) {
	switch status {
	case models.ClassStatusNotStarted, models.ClassStatusInProgress, models.ClassStatusFinished, models.ClassStatusCancelled:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class status %q", status))
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status == models.ClassStatusFinished || class.Status == models.ClassStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("class is already %s", class.Status.Label()))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	class.Status = status
	class.UpdatedAt = time.Now()
	_ = s.cache.Invalidate(ctx, classDetailCacheKey(id))
	s.logger.Info("class status updated", zap.String("class_id", id), zap.String("status", string(status)))
	return class, nil
}

// Roster lists the students currently studying in the class, for display and
// CSV export.
func (s *ClassService) Roster(ctx context.Context, classID string) ([]models.EnrollmentDetail, error) {
	if _, err := s.repo.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	roster, err := s.enrollments.RosterByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}
