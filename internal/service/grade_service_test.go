package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
)

type mockGradeRepo struct {
	grades   []models.Grade
	average  float64
	graded   bool
	upserted *models.Grade
}

func (m *mockGradeRepo) ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.Grade, error) {
	return m.grades, nil
}

func (m *mockGradeRepo) ListByClass(ctx context.Context, classID string) ([]models.Grade, error) {
	return m.grades, nil
}

func (m *mockGradeRepo) AverageScore(ctx context.Context, studentID, classID string) (float64, bool, error) {
	return m.average, m.graded, nil
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.Grade) error {
	m.upserted = grade
	return nil
}

type mockGradeEnrollments struct {
	enrollments []models.EnrollmentDetail
}

func (m *mockGradeEnrollments) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return m.enrollments, len(m.enrollments), nil
}

func TestGradeServiceRecord(t *testing.T) {
	repo := &mockGradeRepo{}
	enrollments := &mockGradeEnrollments{enrollments: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusStudying}},
	}}
	svc := NewGradeService(repo, enrollments, testEnrollmentConfig(), validator.New(), zap.NewNop())

	grade, err := svc.Record(context.Background(), RecordGradeRequest{
		StudentID: "s1", ClassID: "c1", ExamType: models.ExamTypeMidterm, Score: 7.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 7.5, grade.Score)
	require.NotNil(t, repo.upserted)
}

func TestGradeServiceRecordScoreOutOfRange(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, testEnrollmentConfig(), validator.New(), zap.NewNop())

	_, err := svc.Record(context.Background(), RecordGradeRequest{
		StudentID: "s1", ClassID: "c1", ExamType: models.ExamTypeFinal, Score: 11,
	})
	assertErrCode(t, err, "VALIDATION_ERROR")
}

func TestGradeServiceRecordWithoutEnrollment(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, testEnrollmentConfig(), validator.New(), zap.NewNop())

	_, err := svc.Record(context.Background(), RecordGradeRequest{
		StudentID: "s1", ClassID: "c1", ExamType: models.ExamTypeMidterm, Score: 6,
	})
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestGradeServiceRecordCancelledEnrollment(t *testing.T) {
	enrollments := &mockGradeEnrollments{enrollments: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1", Status: models.RegistrationStatusCancelled}},
	}}
	svc := NewGradeService(&mockGradeRepo{}, enrollments, testEnrollmentConfig(), validator.New(), zap.NewNop())

	_, err := svc.Record(context.Background(), RecordGradeRequest{
		StudentID: "s1", ClassID: "c1", ExamType: models.ExamTypeMidterm, Score: 6,
	})
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestGradeServiceReport(t *testing.T) {
	repo := &mockGradeRepo{
		grades: []models.Grade{
			{ExamType: models.ExamTypeMidterm, Score: 4},
			{ExamType: models.ExamTypeFinal, Score: 7},
		},
		average: 5.5,
		graded:  true,
	}
	svc := NewGradeService(repo, &mockGradeEnrollments{}, testEnrollmentConfig(), validator.New(), zap.NewNop())

	report, err := svc.Report(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.True(t, report.Graded)
	assert.True(t, report.Passed)
	assert.Equal(t, 5.5, report.Average)
	assert.Len(t, report.Grades, 2)
}

func TestGradeServiceReportUngraded(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, testEnrollmentConfig(), validator.New(), zap.NewNop())

	report, err := svc.Report(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.False(t, report.Graded)
	assert.False(t, report.Passed)
}
