package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/izone-edu/izone-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments. Lifecycle writes
// that race on shared state (seats, reservations) run inside a single
// transaction with the contended row locked.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailColumns = `e.id, e.student_id, e.class_id, e.registered_at, e.status, e.payment_status,
        e.type, e.cancelled_at, e.cancel_reason,
        s.full_name AS student_name, c.course_id, k.name AS course_name, k.tuition_fee`

const enrollmentDetailJoins = `FROM enrollments e
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN classes c ON c.id = e.class_id
LEFT JOIN courses k ON k.id = c.course_id`

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("e.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"registered_at": "e.registered_at",
		"student_name":  "s.full_name",
		"course_name":   "k.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.registered_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		enrollmentDetailColumns, enrollmentDetailJoins+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", enrollmentDetailJoins+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// RosterByClass returns every STUDYING enrollment of a class, unpaginated,
// ordered by student name. Used for roster display and CSV export.
func (r *EnrollmentRepository) RosterByClass(ctx context.Context, classID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE e.class_id = $1 AND e.status = $2 ORDER BY s.full_name ASC`,
		enrollmentDetailColumns, enrollmentDetailJoins)
	var roster []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &roster, query, classID, models.RegistrationStatusStudying); err != nil {
		return nil, fmt.Errorf("list class roster: %w", err)
	}
	return roster, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, registered_at, status, payment_status, type,
        cancelled_at, cancel_reason FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student, class and course info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE e.id = $1`, enrollmentDetailColumns, enrollmentDetailJoins)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsStudying checks whether a student already has a STUDYING enrollment
// in the class.
func (r *EnrollmentRepository) ExistsStudying(ctx context.Context, studentID, classID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID, models.RegistrationStatusStudying); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check studying enrollment: %w", err)
	}
	return true, nil
}

// lockClassAndCheckSeat locks the class row and verifies a seat remains.
// Must run inside a transaction; returns ErrNoSeat when full.
func lockClassAndCheckSeat(ctx context.Context, tx *sqlx.Tx, classID string) error {
	var capacity sql.NullInt64
	if err := tx.GetContext(ctx, &capacity, `SELECT capacity FROM classes WHERE id = $1 FOR UPDATE`, classID); err != nil {
		return fmt.Errorf("lock class: %w", err)
	}
	if !capacity.Valid {
		return nil
	}
	var occupancy int64
	err := tx.GetContext(ctx, &occupancy,
		`SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2`,
		classID, models.RegistrationStatusStudying)
	if err != nil {
		return fmt.Errorf("count occupancy: %w", err)
	}
	if occupancy >= capacity.Int64 {
		return ErrNoSeat
	}
	return nil
}

// lockEnrollmentStudying locks the enrollment row and verifies it is still
// STUDYING. Must run inside a transaction; returns ErrEnrollmentNotStudying
// when a concurrent transition won the race.
func lockEnrollmentStudying(ctx context.Context, tx *sqlx.Tx, enrollmentID string) error {
	var status models.RegistrationStatus
	if err := tx.GetContext(ctx, &status,
		`SELECT status FROM enrollments WHERE id = $1 FOR UPDATE`, enrollmentID); err != nil {
		return fmt.Errorf("lock enrollment: %w", err)
	}
	if status != models.RegistrationStatusStudying {
		return ErrEnrollmentNotStudying
	}
	return nil
}

func insertEnrollment(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.RegisteredAt.IsZero() {
		enrollment.RegisteredAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.RegistrationStatusStudying
	}
	if enrollment.Type == "" {
		enrollment.Type = models.RegistrationTypeNormal
	}
	const query = `INSERT INTO enrollments (id, student_id, class_id, registered_at, status, payment_status, type, cancelled_at, cancel_reason)
        VALUES (:id, :student_id, :class_id, :registered_at, :status, :payment_status, :type, :cancelled_at, :cancel_reason)`
	if _, err := tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// CreateWithSeatCheck inserts a new enrollment after a row-locked capacity
// check so two concurrent registrations cannot fill the same last seat.
func (r *EnrollmentRepository) CreateWithSeatCheck(ctx context.Context, enrollment *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockClassAndCheckSeat(ctx, tx, enrollment.ClassID); err != nil {
		return err
	}
	if err := insertEnrollment(ctx, tx, enrollment); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateStatus transitions the registration status, optionally recording the
// cancellation timestamp and reason.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, cancelledAt *time.Time, reason *string) error {
	const query = `UPDATE enrollments SET status = $2, cancelled_at = $3, cancel_reason = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, cancelledAt, reason); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// UpdatePaymentStatus sets the payment status of an enrollment.
func (r *EnrollmentRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	const query = `UPDATE enrollments SET payment_status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update enrollment payment status: %w", err)
	}
	return nil
}

// CompleteByClass finishes a class and completes all of its STUDYING
// enrollments in one transaction.
func (r *EnrollmentRepository) CompleteByClass(ctx context.Context, classID string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin completion tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE classes SET status = $2, updated_at = $3 WHERE id = $1`,
		classID, models.ClassStatusFinished, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("finish class: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET status = $2 WHERE class_id = $1 AND status = $3`,
		classID, models.RegistrationStatusCompleted, models.RegistrationStatusStudying)
	if err != nil {
		return 0, fmt.Errorf("complete enrollments: %w", err)
	}
	affected, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Reserve switches the enrollment to RESERVED and records the reservation in
// the same transaction. The enrollment row is locked and re-verified as
// STUDYING so a concurrent reserve or cancel cannot double-book the leave.
func (r *EnrollmentRepository) Reserve(ctx context.Context, enrollmentID string, reservation *models.Reservation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockEnrollmentStudying(ctx, tx, enrollmentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET status = $2 WHERE id = $1`,
		enrollmentID, models.RegistrationStatusReserved); err != nil {
		return fmt.Errorf("reserve enrollment: %w", err)
	}

	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	if reservation.Status == "" {
		reservation.Status = models.ReservationStatusPending
	}
	const insert = `INSERT INTO reservations (id, enrollment_id, created_at, remaining_sessions, expires_at, status, approved_by, reason)
        VALUES (:id, :enrollment_id, :created_at, :remaining_sessions, :expires_at, :status, :approved_by, :reason)`
	if _, err := tx.NamedExecContext(ctx, insert, reservation); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return tx.Commit()
}

// ConsumeReservation marks the reservation USED and creates the continuation
// enrollment atomically. The reservation row is locked so a concurrent
// request cannot consume it twice, and the target class seat is re-checked
// under lock.
func (r *EnrollmentRepository) ConsumeReservation(ctx context.Context, reservationID string, enrollment *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin continuation tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var locked struct {
		Status    models.ReservationStatus `db:"status"`
		ExpiresAt time.Time                `db:"expires_at"`
	}
	if err := tx.GetContext(ctx, &locked,
		`SELECT status, expires_at FROM reservations WHERE id = $1 FOR UPDATE`, reservationID); err != nil {
		return fmt.Errorf("lock reservation: %w", err)
	}
	if locked.Status == models.ReservationStatusUsed {
		return ErrReservationConsumed
	}
	if locked.Status != models.ReservationStatusApproved || !time.Now().UTC().Before(locked.ExpiresAt) {
		return ErrReservationUnavailable
	}

	if err := lockClassAndCheckSeat(ctx, tx, enrollment.ClassID); err != nil {
		return err
	}
	if err := insertEnrollment(ctx, tx, enrollment); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = $2 WHERE id = $1`,
		reservationID, models.ReservationStatusUsed); err != nil {
		return fmt.Errorf("consume reservation: %w", err)
	}
	return tx.Commit()
}

// SwitchClass closes the old enrollment and opens the new one in a single
// transaction. The old row is locked and re-verified as STUDYING before it
// closes. When walletCredit is non-nil the refund ledger entry and the
// student balance update commit with it.
func (r *EnrollmentRepository) SwitchClass(ctx context.Context, oldID string, closeReason string, enrollment *models.Enrollment, walletCredit *models.WalletTransaction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class change tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockEnrollmentStudying(ctx, tx, oldID); err != nil {
		return err
	}
	if err := lockClassAndCheckSeat(ctx, tx, enrollment.ClassID); err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET status = $2, cancelled_at = $3, cancel_reason = $4 WHERE id = $1`,
		oldID, models.RegistrationStatusCancelled, now, closeReason); err != nil {
		return fmt.Errorf("close old enrollment: %w", err)
	}

	if err := insertEnrollment(ctx, tx, enrollment); err != nil {
		return err
	}

	if walletCredit != nil {
		if walletCredit.ID == "" {
			walletCredit.ID = uuid.NewString()
		}
		if walletCredit.CreatedAt.IsZero() {
			walletCredit.CreatedAt = now
		}
		const ledger = `INSERT INTO wallet_transactions (id, student_id, type, amount, enrollment_id, payment_id, note, created_at)
            VALUES (:id, :student_id, :type, :amount, :enrollment_id, :payment_id, :note, :created_at)`
		if _, err := tx.NamedExecContext(ctx, ledger, walletCredit); err != nil {
			return fmt.Errorf("insert wallet credit: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE students SET wallet_balance = wallet_balance + $2, updated_at = $3 WHERE id = $1`,
			walletCredit.StudentID, walletCredit.Amount, now); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
	}
	return tx.Commit()
}
