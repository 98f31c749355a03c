package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/config"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type gradeRepository interface {
	ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.Grade, error)
	ListByClass(ctx context.Context, classID string) ([]models.Grade, error)
	AverageScore(ctx context.Context, studentID, classID string) (float64, bool, error)
	Upsert(ctx context.Context, grade *models.Grade) error
}

type gradeEnrollmentChecker interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

// RecordGradeRequest records or replaces one exam score.
type RecordGradeRequest struct {
	StudentID string          `json:"student_id" validate:"required"`
	ClassID   string          `json:"class_id" validate:"required"`
	ExamType  models.ExamType `json:"exam_type" validate:"required,oneof=MIDTERM FINAL"`
	Score     float64         `json:"score" validate:"gte=0,lte=10"`
}

// GradeReport summarises a student's results in one class.
type GradeReport struct {
	StudentID string         `json:"student_id"`
	ClassID   string         `json:"class_id"`
	Grades    []models.Grade `json:"grades"`
	Average   float64        `json:"average"`
	Graded    bool           `json:"graded"`
	Passed    bool           `json:"passed"`
}

// GradeService coordinates exam grading.
type GradeService struct {
	repo        gradeRepository
	enrollments gradeEnrollmentChecker
	cfg         config.EnrollmentConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, enrollments gradeEnrollmentChecker, cfg config.EnrollmentConfig, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, enrollments: enrollments, cfg: cfg, validator: validate, logger: logger}
}

// Record upserts a grade for a student who has an enrollment in the class.
func (s *GradeService) Record(ctx context.Context, req RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	enrolled, err := s.hasEnrollment(ctx, req.StudentID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student has no enrollment in this class")
	}

	grade := &models.Grade{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		ExamType:  req.ExamType,
		Score:     req.Score,
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	s.logger.Info("grade recorded",
		zap.String("student_id", req.StudentID),
		zap.String("class_id", req.ClassID),
		zap.String("exam_type", string(req.ExamType)),
		zap.Float64("score", req.Score))
	return grade, nil
}

// Report returns a student's grades for a class along with the pass verdict.
func (s *GradeService) Report(ctx context.Context, studentID, classID string) (*GradeReport, error) {
	grades, err := s.repo.ListByStudentAndClass(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	average, graded, err := s.repo.AverageScore(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average grades")
	}
	return &GradeReport{
		StudentID: studentID,
		ClassID:   classID,
		Grades:    grades,
		Average:   average,
		Graded:    graded,
		Passed:    graded && average >= s.cfg.GradePassMark,
	}, nil
}

// ClassGrades returns every grade recorded for a class.
func (s *GradeService) ClassGrades(ctx context.Context, classID string) ([]models.Grade, error) {
	grades, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class grades")
	}
	return grades, nil
}

func (s *GradeService) hasEnrollment(ctx context.Context, studentID, classID string) (bool, error) {
	enrollments, _, err := s.enrollments.List(ctx, models.EnrollmentFilter{StudentID: studentID, ClassID: classID, PageSize: 100})
	if err != nil {
		return false, err
	}
	for _, e := range enrollments {
		if e.Status != models.RegistrationStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}
