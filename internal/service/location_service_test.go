package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izone-edu/izone-api/internal/models"
)

type mockLocationRepo struct {
	locations map[string]*models.Location
	created   *models.Location
	updated   *models.Location
}

func (m *mockLocationRepo) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error) {
	var out []models.Location
	for _, loc := range m.locations {
		out = append(out, *loc)
	}
	return out, len(out), nil
}

func (m *mockLocationRepo) FindByID(ctx context.Context, id string) (*models.Location, error) {
	if loc, ok := m.locations[id]; ok {
		copied := *loc
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLocationRepo) Create(ctx context.Context, location *models.Location) error {
	if location.ID == "" {
		location.ID = "new-location"
	}
	m.created = location
	return nil
}

func (m *mockLocationRepo) Update(ctx context.Context, location *models.Location) error {
	m.updated = location
	return nil
}

func TestLocationServiceCreate(t *testing.T) {
	repo := &mockLocationRepo{}
	svc := NewLocationService(repo, nil, nil)

	location, err := svc.Create(context.Background(), CreateLocationRequest{
		Name:     "Campus 1",
		Address:  "35 Thai Ha, Dong Da, Ha Noi",
		Capacity: intPtr(120),
	})
	require.NoError(t, err)
	assert.Equal(t, "new-location", location.ID)
	require.NotNil(t, repo.created)
	assert.Equal(t, "Campus 1", repo.created.Name)
	require.NotNil(t, repo.created.Capacity)
	assert.Equal(t, 120, *repo.created.Capacity)
}

func TestLocationServiceCreateInvalid(t *testing.T) {
	svc := NewLocationService(&mockLocationRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateLocationRequest{Name: "Campus 1"})
	assertErrCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(context.Background(), CreateLocationRequest{
		Name:     "Campus 1",
		Address:  "35 Thai Ha",
		Capacity: intPtr(0),
	})
	assertErrCode(t, err, "VALIDATION_ERROR")
}

func TestLocationServiceUpdate(t *testing.T) {
	repo := &mockLocationRepo{locations: map[string]*models.Location{
		"loc-1": {ID: "loc-1", Name: "Campus 1", Address: "35 Thai Ha"},
	}}
	svc := NewLocationService(repo, nil, nil)

	location, err := svc.Update(context.Background(), "loc-1", UpdateLocationRequest{
		Name:     "Campus 1 - Thai Ha",
		Address:  "35 Thai Ha, Dong Da, Ha Noi",
		Capacity: intPtr(80),
	})
	require.NoError(t, err)
	assert.Equal(t, "Campus 1 - Thai Ha", location.Name)
	require.NotNil(t, repo.updated)
	require.NotNil(t, repo.updated.Capacity)
	assert.Equal(t, 80, *repo.updated.Capacity)
}

func TestLocationServiceGetNotFound(t *testing.T) {
	svc := NewLocationService(&mockLocationRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assertErrCode(t, err, "NOT_FOUND")
}
