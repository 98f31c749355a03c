package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/izone-edu/izone-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCreateWithSeatCheck(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(20))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2")).
		WithArgs("class-1", models.RegistrationStatusStudying).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{
		StudentID:     "student-1",
		ClassID:       "class-1",
		Status:        models.RegistrationStatusStudying,
		PaymentStatus: models.PaymentStatusUnpaid,
		Type:          models.RegistrationTypeNormal,
	}
	require.NoError(t, repo.CreateWithSeatCheck(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateWithSeatCheckFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2")).
		WithArgs("class-1", models.RegistrationStatusStudying).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "student-1", ClassID: "class-1"}
	err := repo.CreateWithSeatCheck(context.Background(), enrollment)
	require.ErrorIs(t, err, ErrNoSeat)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateUnlimitedCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(nil))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "student-1", ClassID: "class-1"}
	require.NoError(t, repo.CreateWithSeatCheck(context.Background(), enrollment))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryConsumeReservation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	expires := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, expires_at FROM reservations WHERE id = $1 FOR UPDATE")).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "expires_at"}).
			AddRow(models.ReservationStatusApproved, expires))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-2").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(15))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2")).
		WithArgs("class-2", models.RegistrationStatusStudying).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $2 WHERE id = $1")).
		WithArgs("res-1", models.ReservationStatusUsed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{
		StudentID:     "student-1",
		ClassID:       "class-2",
		Status:        models.RegistrationStatusStudying,
		PaymentStatus: models.PaymentStatusPaid,
		Type:          models.RegistrationTypeContinued,
	}
	require.NoError(t, repo.ConsumeReservation(context.Background(), "res-1", enrollment))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryConsumeReservationTwice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, expires_at FROM reservations WHERE id = $1 FOR UPDATE")).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "expires_at"}).
			AddRow(models.ReservationStatusUsed, time.Now().UTC().Add(time.Hour)))
	mock.ExpectRollback()

	err := repo.ConsumeReservation(context.Background(), "res-1", &models.Enrollment{ClassID: "class-2"})
	require.ErrorIs(t, err, ErrReservationConsumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryConsumeReservationExpired(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, expires_at FROM reservations WHERE id = $1 FOR UPDATE")).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "expires_at"}).
			AddRow(models.ReservationStatusApproved, time.Now().UTC().Add(-time.Hour)))
	mock.ExpectRollback()

	err := repo.ConsumeReservation(context.Background(), "res-1", &models.Enrollment{ClassID: "class-2"})
	require.ErrorIs(t, err, ErrReservationUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySwitchClassWithRefund(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM enrollments WHERE id = $1 FOR UPDATE")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.RegistrationStatusStudying))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-2").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2")).
		WithArgs("class-2", models.RegistrationStatusStudying).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, cancelled_at = $3, cancel_reason = $4 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET wallet_balance = wallet_balance + $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{
		StudentID:     "student-1",
		ClassID:       "class-2",
		Status:        models.RegistrationStatusStudying,
		PaymentStatus: models.PaymentStatusPaid,
	}
	credit := &models.WalletTransaction{
		StudentID: "student-1",
		Type:      models.WalletTxChangeRefund,
		Amount:    500000,
	}
	require.NoError(t, repo.SwitchClass(context.Background(), "enr-1", "changed to class class-2", enrollment, credit))
	require.NotEmpty(t, credit.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySwitchClassNotStudying(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM enrollments WHERE id = $1 FOR UPDATE")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.RegistrationStatusCompleted))
	mock.ExpectRollback()

	err := repo.SwitchClass(context.Background(), "enr-1", "changed", &models.Enrollment{ClassID: "class-2"}, nil)
	require.ErrorIs(t, err, ErrEnrollmentNotStudying)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReserve(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM enrollments WHERE id = $1 FOR UPDATE")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.RegistrationStatusStudying))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2 WHERE id = $1")).
		WithArgs("enr-1", models.RegistrationStatusReserved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	reservation := &models.Reservation{
		EnrollmentID:      "enr-1",
		CreatedAt:         time.Now().UTC(),
		RemainingSessions: 8,
		ExpiresAt:         time.Now().UTC().Add(365 * 24 * time.Hour),
		Status:            models.ReservationStatusPending,
	}
	require.NoError(t, repo.Reserve(context.Background(), "enr-1", reservation))
	require.NotEmpty(t, reservation.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReserveLosesRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)

	// A concurrent reserve already flipped the row; the second transaction
	// must observe RESERVED under lock and abort instead of double-booking.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM enrollments WHERE id = $1 FOR UPDATE")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.RegistrationStatusReserved))
	mock.ExpectRollback()

	err := repo.Reserve(context.Background(), "enr-1", &models.Reservation{EnrollmentID: "enr-1"})
	require.ErrorIs(t, err, ErrEnrollmentNotStudying)

	// Same guard protects a reserve racing a cancel.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM enrollments WHERE id = $1 FOR UPDATE")).
		WithArgs("enr-2").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.RegistrationStatusCancelled))
	mock.ExpectRollback()

	err = repo.Reserve(context.Background(), "enr-2", &models.Reservation{EnrollmentID: "enr-2"})
	require.ErrorIs(t, err, ErrEnrollmentNotStudying)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCompleteByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("class-1", models.ClassStatusFinished, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2 WHERE class_id = $1 AND status = $3")).
		WithArgs("class-1", models.RegistrationStatusCompleted, models.RegistrationStatusStudying).
		WillReturnResult(sqlmock.NewResult(0, 17))
	mock.ExpectCommit()

	completed, err := repo.CompleteByClass(context.Background(), "class-1")
	require.NoError(t, err)
	require.Equal(t, 17, completed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsStudying(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND status = $3 LIMIT 1")).
		WithArgs("student-1", "class-1", models.RegistrationStatusStudying).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsStudying(context.Background(), "student-1", "class-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND status = $3 LIMIT 1")).
		WithArgs("student-2", "class-1", models.RegistrationStatusStudying).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err = repo.ExistsStudying(context.Background(), "student-2", "class-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
