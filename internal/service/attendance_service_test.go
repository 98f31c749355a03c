package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
)

type mockAttendanceRepo struct {
	marked  *models.Attendance
	sheet   []models.Attendance
	history []models.AttendanceRecord
}

func (m *mockAttendanceRepo) ListByStudentAndClass(ctx context.Context, studentID, classID string) ([]models.AttendanceRecord, error) {
	return m.history, nil
}

func (m *mockAttendanceRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Attendance, error) {
	return m.sheet, nil
}

func (m *mockAttendanceRepo) Mark(ctx context.Context, attendance *models.Attendance) error {
	m.marked = attendance
	return nil
}

type mockSessionReader struct {
	sessions map[string]models.Session
}

func (m *mockSessionReader) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudyingChecker struct {
	studying map[string]bool
}

func (m *mockStudyingChecker) ExistsStudying(ctx context.Context, studentID, classID string) (bool, error) {
	return m.studying[studentID+classID], nil
}

func TestAttendanceServiceMark(t *testing.T) {
	repo := &mockAttendanceRepo{}
	sessions := &mockSessionReader{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", Status: models.SessionStatusInProgress},
	}}
	enrollments := &mockStudyingChecker{studying: map[string]bool{"s1c1": true}}
	svc := NewAttendanceService(repo, sessions, enrollments, validator.New(), zap.NewNop())

	record, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "s1", SessionID: "sess1", Present: true})
	require.NoError(t, err)
	assert.True(t, record.Present)
	require.NotNil(t, repo.marked)
}

func TestAttendanceServiceMarkSessionNotHeld(t *testing.T) {
	sessions := &mockSessionReader{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", Status: models.SessionStatusNotHappened},
	}}
	svc := NewAttendanceService(&mockAttendanceRepo{}, sessions, &mockStudyingChecker{}, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "s1", SessionID: "sess1", Present: true})
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestAttendanceServiceMarkNotStudying(t *testing.T) {
	sessions := &mockSessionReader{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", Status: models.SessionStatusHappened},
	}}
	svc := NewAttendanceService(&mockAttendanceRepo{}, sessions, &mockStudyingChecker{}, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "s1", SessionID: "sess1", Present: true})
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestAttendanceServiceMarkUnknownSession(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &mockSessionReader{}, &mockStudyingChecker{}, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "s1", SessionID: "missing", Present: true})
	assertErrCode(t, err, "NOT_FOUND")
}

func TestAttendanceServiceBySession(t *testing.T) {
	repo := &mockAttendanceRepo{sheet: []models.Attendance{{ID: "a1", StudentID: "s1", Present: true}}}
	sessions := &mockSessionReader{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", Status: models.SessionStatusHappened},
	}}
	svc := NewAttendanceService(repo, sessions, &mockStudyingChecker{}, validator.New(), zap.NewNop())

	sheet, err := svc.BySession(context.Background(), "sess1")
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, "s1", sheet[0].StudentID)
}
