package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/config"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type classDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

type enrollmentExistenceChecker interface {
	ExistsStudying(ctx context.Context, studentID, classID string) (bool, error)
}

type sessionCounter interface {
	CountByClass(ctx context.Context, classID string) (int, error)
	CountHappened(ctx context.Context, classID string) (int, error)
}

type gradeAverager interface {
	AverageScore(ctx context.Context, studentID, classID string) (float64, bool, error)
}

type attendanceCounter interface {
	CountPresent(ctx context.Context, studentID, classID string) (int, error)
}

// CheckResult is the outcome of a single eligibility rule. Reason carries the
// human-readable explanation when the rule denies.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allowed() CheckResult {
	return CheckResult{Allowed: true}
}

func denied(format string, args ...interface{}) CheckResult {
	return CheckResult{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// EligibilityService evaluates the business rules that gate enrollment
// lifecycle transitions. Checks are read-only; the repository re-verifies the
// racy ones (seats, reservations) under row locks at write time.
type EligibilityService struct {
	classes     classDetailReader
	enrollments enrollmentExistenceChecker
	sessions    sessionCounter
	grades      gradeAverager
	attendance  attendanceCounter
	cfg         config.EnrollmentConfig
	logger      *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(classes classDetailReader, enrollments enrollmentExistenceChecker, sessions sessionCounter, grades gradeAverager, attendance attendanceCounter, cfg config.EnrollmentConfig, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{classes: classes, enrollments: enrollments, sessions: sessions, grades: grades, attendance: attendance, cfg: cfg, logger: logger}
}

// CheckClassOpen verifies that a class still accepts new registrations.
func (s *EligibilityService) CheckClassOpen(ctx context.Context, classID string) (CheckResult, error) {
	class, err := s.classes.FindDetailByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return CheckResult{}, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return CheckResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	switch class.Status {
	case models.ClassStatusNotStarted:
		return allowed(), nil
	case models.ClassStatusInProgress:
		return denied("class already started"), nil
	case models.ClassStatusFinished:
		return denied("class already finished"), nil
	case models.ClassStatusCancelled:
		return denied("class was cancelled"), nil
	default:
		return denied("class is not open for registration"), nil
	}
}

// CheckDuplicate verifies the student is not already studying in the class.
func (s *EligibilityService) CheckDuplicate(ctx context.Context, studentID, classID string) (CheckResult, error) {
	exists, err := s.enrollments.ExistsStudying(ctx, studentID, classID)
	if err != nil {
		return CheckResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if exists {
		return denied("student already enrolled in this class"), nil
	}
	return allowed(), nil
}

// CheckSeat verifies a seat remains in the class. Classes without a capacity
// never fill.
func (s *EligibilityService) CheckSeat(ctx context.Context, classID string) (CheckResult, error) {
	class, err := s.classes.FindDetailByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return CheckResult{}, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return CheckResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Capacity == nil {
		return allowed(), nil
	}
	if class.Occupancy >= *class.Capacity {
		return denied("class is full (%d/%d seats taken)", class.Occupancy, *class.Capacity), nil
	}
	return allowed(), nil
}

// RemainingSessions returns how many scheduled sessions have not yet been
// held for the class. Cancelled sessions are excluded from the schedule.
func (s *EligibilityService) RemainingSessions(ctx context.Context, classID string) (int, error) {
	total, err := s.sessions.CountByClass(ctx, classID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions")
	}
	happened, err := s.sessions.CountHappened(ctx, classID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count held sessions")
	}
	remaining := total - happened
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CanReserve verifies an enrollment qualifies for a leave-of-absence
// reservation: it must be actively studying with enough of the course left.
func (s *EligibilityService) CanReserve(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error) {
	if enrollment.Status != models.RegistrationStatusStudying {
		return denied("enrollment is %s, only studying enrollments can be reserved", enrollment.Status.Label()), nil
	}
	remaining, err := s.RemainingSessions(ctx, enrollment.ClassID)
	if err != nil {
		return CheckResult{}, err
	}
	if remaining < s.cfg.MinSessionsForReservation {
		return denied("only %d sessions remain, at least %d required", remaining, s.cfg.MinSessionsForReservation), nil
	}
	return allowed(), nil
}

// CanRetake verifies a completed enrollment qualifies for a free retake:
// either the grade average fell below the pass mark or attendance fell below
// the required rate.
func (s *EligibilityService) CanRetake(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error) {
	if enrollment.Status != models.RegistrationStatusCompleted {
		return denied("enrollment is %s, only completed enrollments can be retaken", enrollment.Status.Label()), nil
	}

	average, graded, err := s.grades.AverageScore(ctx, enrollment.StudentID, enrollment.ClassID)
	if err != nil {
		return CheckResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade average")
	}
	if graded && average < s.cfg.RetakePassMark {
		return allowed(), nil
	}

	happened, err := s.sessions.CountHappened(ctx, enrollment.ClassID)
	if err != nil {
		return CheckResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count held sessions")
	}
	if happened > 0 {
		present, err := s.attendance.CountPresent(ctx, enrollment.StudentID, enrollment.ClassID)
		if err != nil {
			return CheckResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
		}
		rate := float64(present) / float64(happened)
		if rate < s.cfg.RetakeMinAttendanceRate {
			return allowed(), nil
		}
	}

	if !graded {
		return denied("no grades recorded for this enrollment"), nil
	}
	return denied("average %.1f meets the pass mark %.1f", average, s.cfg.RetakePassMark), nil
}

// CanChange verifies a studying enrollment may still switch to another class.
// Fee-exempt registrations (continued, retake) never qualify.
func (s *EligibilityService) CanChange(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error) {
	if enrollment.Status != models.RegistrationStatusStudying {
		return denied("enrollment is %s, only studying enrollments can change class", enrollment.Status.Label()), nil
	}
	if enrollment.Type != models.RegistrationTypeNormal {
		return denied("%s enrollments are fee-exempt and cannot change class", enrollment.Type.Label()), nil
	}
	attended, err := s.attendance.CountPresent(ctx, enrollment.StudentID, enrollment.ClassID)
	if err != nil {
		return CheckResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	if attended > s.cfg.MaxAttendedForChange {
		return denied("already attended %d sessions, changes allowed up to %d", attended, s.cfg.MaxAttendedForChange), nil
	}
	return allowed(), nil
}
