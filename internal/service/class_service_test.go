package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type mockClassRepo struct {
	classes     map[string]models.Class
	details     map[string]models.ClassDetail
	created     *models.Class
	updated     *models.Class
	statusSet   models.ClassStatus
	detailCalls int
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	var out []models.ClassDetail
	for _, d := range m.details {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	m.detailCalls++
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = "new-class"
	}
	if m.classes == nil {
		m.classes = make(map[string]models.Class)
	}
	m.classes[class.ID] = *class
	m.created = class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = *class
	m.updated = class
	return nil
}

func (m *mockClassRepo) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	c := m.classes[id]
	c.Status = status
	m.classes[id] = c
	m.statusSet = status
	return nil
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockLecturerReader struct {
	lecturers map[string]models.Lecturer
}

func (m *mockLecturerReader) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	if l, ok := m.lecturers[id]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

type mockRosterReader struct {
	roster []models.EnrollmentDetail
}

func (m *mockRosterReader) RosterByClass(ctx context.Context, classID string) ([]models.EnrollmentDetail, error) {
	return m.roster, nil
}

// memCacheRepo is an in-memory CacheRepository round-tripping values through
// JSON the way the Redis implementation does.
type memCacheRepo struct {
	entries map[string][]byte
	sets    int
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(m.entries, pattern)
	return nil
}

func newTestClassService(repo *mockClassRepo, cache *CacheService) *ClassService {
	courses := &mockCourseReader{courses: map[string]models.Course{
		"crs": {ID: "crs", Name: "IELTS Foundation", TuitionFee: 4_000_000, SessionCount: 24},
	}}
	lecturers := &mockLecturerReader{lecturers: map[string]models.Lecturer{
		"lec": {ID: "lec", FullName: "Tran Thi B"},
	}}
	return NewClassService(repo, courses, lecturers, &mockRosterReader{}, cache, validator.New(), zap.NewNop())
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newTestClassService(repo, nil)

	cap := 20
	class, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:        "crs",
		LecturerID:      "lec",
		StartDate:       time.Now().AddDate(0, 0, 7),
		WeeklySchedule:  "Mon, Wed, Fri",
		SessionDuration: 1.5,
		Capacity:        &cap,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusNotStarted, class.Status)
	require.NotNil(t, repo.created)
}

func TestClassServiceCreateUnknownCourse(t *testing.T) {
	svc := newTestClassService(&mockClassRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:        "missing",
		LecturerID:      "lec",
		StartDate:       time.Now(),
		WeeklySchedule:  "Tue, Thu",
		SessionDuration: 2,
	})
	assertErrCode(t, err, "NOT_FOUND")
}

func TestClassServiceGetUsesCache(t *testing.T) {
	repo := &mockClassRepo{details: map[string]models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", CourseID: "crs"}, CourseName: "IELTS Foundation", Occupancy: 12},
	}}
	cacheRepo := &memCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := newTestClassService(repo, cache)

	first, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 12, first.Occupancy)
	assert.Equal(t, 1, repo.detailCalls)
	assert.Equal(t, 1, cacheRepo.sets)

	second, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, first.CourseName, second.CourseName)
	// Second read is served from cache without touching the repository.
	assert.Equal(t, 1, repo.detailCalls)
}

func TestClassServiceUpdateStatus(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusNotStarted},
	}}
	svc := newTestClassService(repo, nil)

	class, err := svc.UpdateStatus(context.Background(), "c1", models.ClassStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusInProgress, class.Status)

	_, err = svc.UpdateStatus(context.Background(), "c1", models.ClassStatusNotStarted)
	require.NoError(t, err)

	repo.classes["c1"] = models.Class{ID: "c1", Status: models.ClassStatusFinished}
	_, err = svc.UpdateStatus(context.Background(), "c1", models.ClassStatusInProgress)
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestClassServiceRoster(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{"c1": {ID: "c1"}}}
	courses := &mockCourseReader{}
	lecturers := &mockLecturerReader{}
	roster := &mockRosterReader{roster: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", Status: models.RegistrationStatusStudying}, StudentName: "Nguyen Van A"},
	}}
	svc := NewClassService(repo, courses, lecturers, roster, nil, validator.New(), zap.NewNop())

	list, err := svc.Roster(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Nguyen Van A", list[0].StudentName)

	_, err = svc.Roster(context.Background(), "missing")
	assertErrCode(t, err, "NOT_FOUND")
}
