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

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error
}

type sessionClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// CreateSessionRequest schedules one class meeting. Times use "15:04" format.
type CreateSessionRequest struct {
	ClassID              string  `json:"class_id" validate:"required"`
	Date                 string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime            string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime              string  `json:"end_time" validate:"required,datetime=15:04"`
	SubstituteLecturerID *string `json:"substitute_lecturer_id"`
	LocationID           *string `json:"location_id"`
}

// SessionService coordinates per-meeting operations of a class.
type SessionService struct {
	repo      sessionRepository
	classes   sessionClassReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(repo sessionRepository, classes sessionClassReader, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns sessions with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return sessions, pagination, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Create schedules a session for a class that is not yet finished.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status == models.ClassStatusFinished || class.Status == models.ClassStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("class is %s", class.Status.Label()))
	}

	date, err := parseSessionDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session date")
	}

	session := &models.Session{
		ClassID:              req.ClassID,
		Date:                 date,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		SubstituteLecturerID: req.SubstituteLecturerID,
		LocationID:           req.LocationID,
		Status:               models.SessionStatusNotHappened,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// UpdateStatus transitions a session. Happened and cancelled are terminal.
func (s *SessionService) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error) {
	switch status {
	case models.SessionStatusNotHappened, models.SessionStatusInProgress, models.SessionStatusHappened, models.SessionStatusCancelled:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown session status %q", status))
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status == models.SessionStatusHappened || session.Status == models.SessionStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("session is already %s", session.Status.Label()))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session status")
	}
	session.Status = status
	return session, nil
}

func parseSessionDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
