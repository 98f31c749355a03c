package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
)

type mockReservationRepo struct {
	reservations map[string]models.Reservation
}

func (m *mockReservationRepo) List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockReservationRepo) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	if r, ok := m.reservations[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReservationRepo) FindDetailByID(ctx context.Context, id string) (*models.ReservationDetail, error) {
	if r, ok := m.reservations[id]; ok {
		return &models.ReservationDetail{Reservation: r, StudentID: "s1", StudentName: "Nguyen Van A"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReservationRepo) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, approvedBy *string) error {
	if r, ok := m.reservations[id]; ok {
		r.Status = status
		r.ApprovedBy = approvedBy
		m.reservations[id] = r
	}
	return nil
}

func (m *mockReservationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for id, r := range m.reservations {
		if r.Status == models.ReservationStatusApproved && !r.ExpiresAt.After(now) {
			r.Status = models.ReservationStatusExpired
			m.reservations[id] = r
			count++
		}
	}
	return count, nil
}

func TestReservationServiceApprove(t *testing.T) {
	repo := &mockReservationRepo{reservations: map[string]models.Reservation{
		"r1": {ID: "r1", EnrollmentID: "e1", Status: models.ReservationStatusPending},
	}}
	notifier := &mockNotifier{}
	svc := NewReservationService(repo, notifier, zap.NewNop())

	detail, err := svc.Approve(context.Background(), "r1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusApproved, detail.Status)
	require.NotNil(t, detail.ApprovedBy)
	assert.Equal(t, "admin-1", *detail.ApprovedBy)
	assert.Contains(t, notifier.studentTitles, "Reservation approved")
}

func TestReservationServiceReject(t *testing.T) {
	repo := &mockReservationRepo{reservations: map[string]models.Reservation{
		"r1": {ID: "r1", EnrollmentID: "e1", Status: models.ReservationStatusPending},
	}}
	svc := NewReservationService(repo, nil, zap.NewNop())

	detail, err := svc.Reject(context.Background(), "r1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusRejected, detail.Status)
}

func TestReservationServiceReviewNonPending(t *testing.T) {
	repo := &mockReservationRepo{reservations: map[string]models.Reservation{
		"r1": {ID: "r1", Status: models.ReservationStatusApproved},
	}}
	svc := NewReservationService(repo, nil, zap.NewNop())

	_, err := svc.Approve(context.Background(), "r1", "admin-1")
	assertErrCode(t, err, "PRECONDITION_FAILED")

	_, err = svc.Reject(context.Background(), "r1", "admin-1")
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestReservationServiceReviewNotFound(t *testing.T) {
	svc := NewReservationService(&mockReservationRepo{}, nil, zap.NewNop())

	_, err := svc.Approve(context.Background(), "missing", "admin-1")
	assertErrCode(t, err, "NOT_FOUND")
}

func TestReservationServiceExpireOverdue(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	repo := &mockReservationRepo{reservations: map[string]models.Reservation{
		"r1": {ID: "r1", Status: models.ReservationStatusApproved, ExpiresAt: past},
		"r2": {ID: "r2", Status: models.ReservationStatusApproved, ExpiresAt: future},
		"r3": {ID: "r3", Status: models.ReservationStatusPending, ExpiresAt: past},
	}}
	svc := NewReservationService(repo, nil, zap.NewNop())

	expired, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, models.ReservationStatusExpired, repo.reservations["r1"].Status)
	assert.Equal(t, models.ReservationStatusApproved, repo.reservations["r2"].Status)
	assert.Equal(t, models.ReservationStatusPending, repo.reservations["r3"].Status)
}
