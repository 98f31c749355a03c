package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type attendanceRepository interface {
	ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.AttendanceRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Attendance, error)
	Mark(ctx context.Context, attendance *models.Attendance) error
}

type attendanceSessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type attendanceEnrollmentChecker interface {
	ExistsStudying(ctx context.Context, studentID, classID string) (bool, error)
}

// MarkAttendanceRequest records presence for one student at one session.
type MarkAttendanceRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	SessionID string  `json:"session_id" validate:"required"`
	Present   bool    `json:"present"`
	Note      *string `json:"note"`
}

// AttendanceService coordinates attendance bookkeeping.
type AttendanceService struct {
	repo        attendanceRepository
	sessions    attendanceSessionReader
	enrollments attendanceEnrollmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, sessions attendanceSessionReader, enrollments attendanceEnrollmentChecker, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, sessions: sessions, enrollments: enrollments, validator: validate, logger: logger}
}

// Mark upserts an attendance record. The session must be in progress or
// already held, and the student must be studying in the session's class.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status != models.SessionStatusInProgress && session.Status != models.SessionStatusHappened {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("session is %s", session.Status.Label()))
	}

	studying, err := s.enrollments.ExistsStudying(ctx, req.StudentID, session.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !studying {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is not studying in this class")
	}

	attendance := &models.Attendance{
		StudentID: req.StudentID,
		SessionID: req.SessionID,
		Present:   req.Present,
		Note:      req.Note,
	}
	if err := s.repo.Mark(ctx, attendance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	return attendance, nil
}

// BySession lists the attendance sheet for one session.
func (s *AttendanceService) BySession(ctx context.Context, sessionID string) ([]models.Attendance, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	records, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// History lists a student's attendance across one class with session context.
func (s *AttendanceService) History(ctx context.Context, studentID, classID string) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListByStudentAndClass(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance history")
	}
	return records, nil
}
