package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/izone-edu/izone-api/internal/models"
)

func TestReservationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	reviewer := "admin-1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $2, approved_by = $3 WHERE id = $1")).
		WithArgs("res-1", models.ReservationStatusApproved, &reviewer).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "res-1", models.ReservationStatusApproved, &reviewer))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryExpireOverdue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $1 WHERE status = $2 AND expires_at <= $3")).
		WithArgs(models.ReservationStatusExpired, models.ReservationStatusApproved, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := repo.ExpireOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 3, expired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReservationRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "enrollment_id", "created_at", "remaining_sessions", "expires_at",
		"status", "approved_by", "reason",
		"student_id", "student_name", "class_id", "course_id", "course_name",
	}).AddRow("res-1", "enr-1", now, 8, now.Add(365*24*time.Hour),
		models.ReservationStatusPending, nil, nil,
		"student-1", "Tran Thi B", "class-1", "course-1", "IELTS Foundation")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id, r.enrollment_id")).
		WithArgs(models.ReservationStatusPending).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(models.ReservationStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	reservations, total, err := repo.List(context.Background(), models.ReservationFilter{
		Status: models.ReservationStatusPending,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, reservations, 1)
	require.Equal(t, "res-1", reservations[0].ID)
	require.Equal(t, "IELTS Foundation", reservations[0].CourseName)
	require.NoError(t, mock.ExpectationsWereMet())
}
