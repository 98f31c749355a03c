package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/internal/repository"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type mockLifecycleRepo struct {
	enrollments map[string]models.Enrollment
	fees        map[string]int64
	courses     map[string]string

	created   *models.Enrollment
	reserved  *models.Reservation
	consumed  string
	switchOld string
	credit    *models.WalletTransaction
	completed int

	createErr  error
	reserveErr error
	consumeErr error
	switchErr  error
}

func (m *mockLifecycleRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockLifecycleRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLifecycleRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.EnrollmentDetail{
		Enrollment: e,
		CourseID:   m.courses[e.ClassID],
		CourseName: "IELTS Foundation",
		TuitionFee: m.fees[e.ClassID],
	}, nil
}

func (m *mockLifecycleRepo) store(e *models.Enrollment, fallbackID string) {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if e.ID == "" {
		e.ID = fallbackID
	}
	m.enrollments[e.ID] = *e
}

func (m *mockLifecycleRepo) CreateWithSeatCheck(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.store(enrollment, "new-enroll")
	m.created = enrollment
	return nil
}

func (m *mockLifecycleRepo) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, cancelledAt *time.Time, reason *string) error {
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		e.CancelledAt = cancelledAt
		e.CancelReason = reason
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockLifecycleRepo) CompleteByClass(ctx context.Context, classID string) (int, error) {
	count := 0
	for id, e := range m.enrollments {
		if e.ClassID == classID && e.Status == models.RegistrationStatusStudying {
			e.Status = models.RegistrationStatusCompleted
			m.enrollments[id] = e
			count++
		}
	}
	m.completed = count
	return count, nil
}

func (m *mockLifecycleRepo) Reserve(ctx context.Context, enrollmentID string, reservation *models.Reservation) error {
	if m.reserveErr != nil {
		return m.reserveErr
	}
	if e, ok := m.enrollments[enrollmentID]; ok {
		e.Status = models.RegistrationStatusReserved
		m.enrollments[enrollmentID] = e
	}
	if reservation.ID == "" {
		reservation.ID = "new-resv"
	}
	m.reserved = reservation
	return nil
}

func (m *mockLifecycleRepo) ConsumeReservation(ctx context.Context, reservationID string, enrollment *models.Enrollment) error {
	if m.consumeErr != nil {
		return m.consumeErr
	}
	m.store(enrollment, "cont-enroll")
	m.consumed = reservationID
	return nil
}

func (m *mockLifecycleRepo) SwitchClass(ctx context.Context, oldID string, closeReason string, enrollment *models.Enrollment, walletCredit *models.WalletTransaction) error {
	if m.switchErr != nil {
		return m.switchErr
	}
	now := time.Now().UTC()
	if e, ok := m.enrollments[oldID]; ok {
		e.Status = models.RegistrationStatusCancelled
		e.CancelledAt = &now
		e.CancelReason = &closeReason
		m.enrollments[oldID] = e
	}
	m.store(enrollment, "changed-enroll")
	m.switchOld = oldID
	m.credit = walletCredit
	return nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockReservationReader struct {
	reservations map[string]*models.ReservationDetail
}

func (m *mockReservationReader) FindDetailByID(ctx context.Context, id string) (*models.ReservationDetail, error) {
	if r, ok := m.reservations[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type mockEligibility struct {
	classOpen CheckResult
	duplicate CheckResult
	seat      CheckResult
	reserve   CheckResult
	retake    CheckResult
	change    CheckResult
	remaining int
}

func allowAllEligibility() *mockEligibility {
	ok := CheckResult{Allowed: true}
	return &mockEligibility{classOpen: ok, duplicate: ok, seat: ok, reserve: ok, retake: ok, change: ok, remaining: 10}
}

func (m *mockEligibility) CheckClassOpen(ctx context.Context, classID string) (CheckResult, error) {
	return m.classOpen, nil
}

func (m *mockEligibility) CheckDuplicate(ctx context.Context, studentID, classID string) (CheckResult, error) {
	return m.duplicate, nil
}

func (m *mockEligibility) CheckSeat(ctx context.Context, classID string) (CheckResult, error) {
	return m.seat, nil
}

func (m *mockEligibility) CanReserve(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error) {
	return m.reserve, nil
}

func (m *mockEligibility) CanRetake(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error) {
	return m.retake, nil
}

func (m *mockEligibility) CanChange(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error) {
	return m.change, nil
}

func (m *mockEligibility) RemainingSessions(ctx context.Context, classID string) (int, error) {
	return m.remaining, nil
}

type mockChangePayments struct {
	payment *models.Payment
	err     error
	amount  int64
	calls   int
}

func (m *mockChangePayments) StartChangePayment(ctx context.Context, studentID, enrollmentID string, amount int64) (*models.Payment, error) {
	m.calls++
	m.amount = amount
	if m.err != nil {
		return nil, m.err
	}
	return m.payment, nil
}

type mockNotifier struct {
	studentTitles []string
	classTitles   []string
}

func (m *mockNotifier) NotifyStudent(studentID, title, message string) {
	m.studentTitles = append(m.studentTitles, title)
}

func (m *mockNotifier) NotifyClass(classID, title, message string) {
	m.classTitles = append(m.classTitles, title)
}

func assertErrCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func newLifecycleService(repo *mockLifecycleRepo, classes *mockClassDetailReader, reservations *mockReservationReader, eligibility *mockEligibility, payments *mockChangePayments, notifier *mockNotifier) *EnrollmentService {
	students := &mockStudentReader{students: map[string]*models.Student{"s1": {ID: "s1", FullName: "Nguyen Van A"}}}
	if classes == nil {
		classes = &mockClassDetailReader{}
	}
	if reservations == nil {
		reservations = &mockReservationReader{}
	}
	if eligibility == nil {
		eligibility = allowAllEligibility()
	}
	return NewEnrollmentService(repo, students, classes, reservations, eligibility, NewFeeService(), payments, notifier, testEnrollmentConfig(), validator.New(), zap.NewNop())
}

func TestEnrollmentServiceRegister(t *testing.T) {
	repo := &mockLifecycleRepo{fees: map[string]int64{"c1": 4_000_000}}
	notifier := &mockNotifier{}
	svc := newLifecycleService(repo, nil, nil, nil, nil, notifier)

	detail, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", ClassID: "c1"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.RegistrationStatusStudying, detail.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, detail.PaymentStatus)
	assert.Equal(t, models.RegistrationTypeNormal, detail.Type)
	assert.NotEmpty(t, notifier.studentTitles)
}

func TestEnrollmentServiceRegisterDenied(t *testing.T) {
	repo := &mockLifecycleRepo{}

	eligibility := allowAllEligibility()
	eligibility.seat = CheckResult{Reason: "class is full (12/12 seats taken)"}
	svc := newLifecycleService(repo, nil, nil, eligibility, nil, nil)
	_, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", ClassID: "c1"})
	assertErrCode(t, err, "CLASS_FULL")

	eligibility = allowAllEligibility()
	eligibility.duplicate = CheckResult{Reason: "student already enrolled in this class"}
	svc = newLifecycleService(repo, nil, nil, eligibility, nil, nil)
	_, err = svc.Register(context.Background(), RegisterRequest{StudentID: "s1", ClassID: "c1"})
	assertErrCode(t, err, "ALREADY_ENROLLED")

	eligibility = allowAllEligibility()
	eligibility.classOpen = CheckResult{Reason: "class already started"}
	svc = newLifecycleService(repo, nil, nil, eligibility, nil, nil)
	_, err = svc.Register(context.Background(), RegisterRequest{StudentID: "s1", ClassID: "c1"})
	assertErrCode(t, err, "CLASS_NOT_OPEN")
}

func TestEnrollmentServiceRegisterSeatRace(t *testing.T) {
	// Pre-check passes but the locked seat check loses the race.
	repo := &mockLifecycleRepo{createErr: repository.ErrNoSeat}
	svc := newLifecycleService(repo, nil, nil, nil, nil, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", ClassID: "c1"})
	assertErrCode(t, err, "CLASS_FULL")
}

func TestEnrollmentServiceCancel(t *testing.T) {
	repo := &mockLifecycleRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusStudying},
	}}
	svc := newLifecycleService(repo, nil, nil, nil, nil, nil)

	detail, err := svc.Cancel(context.Background(), "e1", CancelRequest{Reason: "moving abroad"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCancelled, detail.Status)
	require.NotNil(t, detail.CancelReason)
	assert.Equal(t, "moving abroad", *detail.CancelReason)
	assert.NotNil(t, detail.CancelledAt)

	_, err = svc.Cancel(context.Background(), "e1", CancelRequest{Reason: "again"})
	assertErrCode(t, err, "ALREADY_CANCELLED")
}

func TestEnrollmentServiceCancelRequiresReason(t *testing.T) {
	repo := &mockLifecycleRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.RegistrationStatusStudying},
	}}
	svc := newLifecycleService(repo, nil, nil, nil, nil, nil)

	_, err := svc.Cancel(context.Background(), "e1", CancelRequest{})
	assertErrCode(t, err, "VALIDATION_ERROR")
}

func TestEnrollmentServiceCompleteClass(t *testing.T) {
	repo := &mockLifecycleRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", ClassID: "c1", Status: models.RegistrationStatusStudying},
		"e2": {ID: "e2", ClassID: "c1", Status: models.RegistrationStatusStudying},
		"e3": {ID: "e3", ClassID: "c1", Status: models.RegistrationStatusReserved},
		"e4": {ID: "e4", ClassID: "c2", Status: models.RegistrationStatusStudying},
	}}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", Status: models.ClassStatusInProgress}, CourseName: "IELTS Foundation"},
	}}
	notifier := &mockNotifier{}
	svc := newLifecycleService(repo, classes, nil, nil, nil, notifier)

	completed, err := svc.CompleteClass(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, completed)
	assert.Equal(t, models.RegistrationStatusCompleted, repo.enrollments["e1"].Status)
	assert.Equal(t, models.RegistrationStatusReserved, repo.enrollments["e3"].Status)
	assert.Equal(t, models.RegistrationStatusStudying, repo.enrollments["e4"].Status)
	assert.NotEmpty(t, notifier.classTitles)
}

func TestEnrollmentServiceCompleteClassAlreadyFinished(t *testing.T) {
	repo := &mockLifecycleRepo{}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", Status: models.ClassStatusFinished}},
	}}
	svc := newLifecycleService(repo, classes, nil, nil, nil, nil)

	_, err := svc.CompleteClass(context.Background(), "c1")
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestEnrollmentServiceRequestReservation(t *testing.T) {
	repo := &mockLifecycleRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusStudying},
	}}
	svc := newLifecycleService(repo, nil, nil, nil, nil, nil)

	reservation, err := svc.RequestReservation(context.Background(), "e1", ReserveRequest{Reason: "maternity leave"})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPending, reservation.Status)
	assert.Equal(t, 10, reservation.RemainingSessions)
	assert.WithinDuration(t, time.Now().UTC().Add(365*24*time.Hour), reservation.ExpiresAt, time.Minute)
	assert.Equal(t, models.RegistrationStatusReserved, repo.enrollments["e1"].Status)
	require.NotNil(t, repo.reserved)
}

func TestEnrollmentServiceRequestReservationIneligible(t *testing.T) {
	repo := &mockLifecycleRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.RegistrationStatusStudying},
	}}
	eligibility := allowAllEligibility()
	eligibility.reserve = CheckResult{Reason: "only 3 sessions remain, at least 5 required"}
	svc := newLifecycleService(repo, nil, nil, eligibility, nil, nil)

	_, err := svc.RequestReservation(context.Background(), "e1", ReserveRequest{})
	assertErrCode(t, err, "INELIGIBLE_RESERVATION")
}

func approvedReservation(expiresAt time.Time) *models.ReservationDetail {
	return &models.ReservationDetail{
		Reservation: models.Reservation{ID: "r1", EnrollmentID: "e1", Status: models.ReservationStatusApproved, ExpiresAt: expiresAt},
		StudentID:   "s1",
		ClassID:     "c1",
		CourseID:    "crs",
	}
}

func TestEnrollmentServiceContinue(t *testing.T) {
	repo := &mockLifecycleRepo{courses: map[string]string{"c2": "crs"}}
	reservations := &mockReservationReader{reservations: map[string]*models.ReservationDetail{
		"r1": approvedReservation(time.Now().UTC().Add(24 * time.Hour)),
	}}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"c2": {Class: models.Class{ID: "c2", CourseID: "crs", Status: models.ClassStatusInProgress}},
	}}
	svc := newLifecycleService(repo, classes, reservations, nil, nil, nil)

	detail, err := svc.Continue(context.Background(), "r1", ContinueRequest{TargetClassID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, "r1", repo.consumed)
	assert.Equal(t, models.RegistrationTypeContinued, detail.Type)
	assert.Equal(t, models.PaymentStatusPaid, detail.PaymentStatus)
	assert.Equal(t, "s1", detail.StudentID)
}

func TestEnrollmentServiceContinueGuards(t *testing.T) {
	future := time.Now().UTC().Add(24 * time.Hour)
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"c2":    {Class: models.Class{ID: "c2", CourseID: "crs", Status: models.ClassStatusInProgress}},
		"other": {Class: models.Class{ID: "other", CourseID: "different", Status: models.ClassStatusNotStarted}},
	}}

	used := approvedReservation(future)
	used.Status = models.ReservationStatusUsed
	expired := approvedReservation(time.Now().UTC().Add(-time.Hour))
	pending := approvedReservation(future)
	pending.Status = models.ReservationStatusPending

	reservations := &mockReservationReader{reservations: map[string]*models.ReservationDetail{
		"used":    used,
		"expired": expired,
		"pending": pending,
		"ok":      approvedReservation(future),
	}}
	repo := &mockLifecycleRepo{}
	svc := newLifecycleService(repo, classes, reservations, nil, nil, nil)

	_, err := svc.Continue(context.Background(), "used", ContinueRequest{TargetClassID: "c2"})
	assertErrCode(t, err, "RESERVATION_ALREADY_USED")

	_, err = svc.Continue(context.Background(), "expired", ContinueRequest{TargetClassID: "c2"})
	assertErrCode(t, err, "RESERVATION_EXPIRED")

	_, err = svc.Continue(context.Background(), "pending", ContinueRequest{TargetClassID: "c2"})
	assertErrCode(t, err, "RESERVATION_NOT_APPROVED")

	_, err = svc.Continue(context.Background(), "ok", ContinueRequest{TargetClassID: "other"})
	assertErrCode(t, err, "CLASS_NOT_SAME_COURSE")
}

func TestEnrollmentServiceContinueConsumeRace(t *testing.T) {
	repo := &mockLifecycleRepo{consumeErr: repository.ErrReservationConsumed}
	reservations := &mockReservationReader{reservations: map[string]*models.ReservationDetail{
		"r1": approvedReservation(time.Now().UTC().Add(24 * time.Hour)),
	}}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"c2": {Class: models.Class{ID: "c2", CourseID: "crs", Status: models.ClassStatusInProgress}},
	}}
	svc := newLifecycleService(repo, classes, reservations, nil, nil, nil)

	_, err := svc.Continue(context.Background(), "r1", ContinueRequest{TargetClassID: "c2"})
	assertErrCode(t, err, "RESERVATION_ALREADY_USED")
}

func TestEnrollmentServiceRetake(t *testing.T) {
	repo := &mockLifecycleRepo{
		enrollments: map[string]models.Enrollment{
			"e1": {ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusCompleted},
		},
		courses: map[string]string{"c1": "crs", "c2": "crs"},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"c2": {Class: models.Class{ID: "c2", CourseID: "crs", Status: models.ClassStatusNotStarted}},
	}}
	svc := newLifecycleService(repo, classes, nil, nil, nil, nil)

	detail, err := svc.Retake(context.Background(), "e1", RetakeRequest{TargetClassID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationTypeRetake, detail.Type)
	assert.Equal(t, models.PaymentStatusPaid, detail.PaymentStatus)
}

func TestEnrollmentServiceRetakeIneligible(t *testing.T) {
	repo := &mockLifecycleRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusCompleted},
	}}
	eligibility := allowAllEligibility()
	eligibility.retake = CheckResult{Reason: "average 7.0 meets the pass mark 5.5"}
	svc := newLifecycleService(repo, nil, nil, eligibility, nil, nil)

	_, err := svc.Retake(context.Background(), "e1", RetakeRequest{TargetClassID: "c2"})
	assertErrCode(t, err, "NOT_ELIGIBLE_TO_RETAKE")
}

func changeFixture(targetFee int64) (*mockLifecycleRepo, *mockClassDetailReader) {
	repo := &mockLifecycleRepo{
		enrollments: map[string]models.Enrollment{
			"e1": {ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusStudying, PaymentStatus: models.PaymentStatusPaid, Type: models.RegistrationTypeNormal},
		},
		fees:    map[string]int64{"c1": 4_000_000, "c2": targetFee},
		courses: map[string]string{"c1": "crs", "c2": "crs"},
	}
	classes := &mockClassDetailReader{classes: map[string]*models.ClassDetail{
		"c2": {Class: models.Class{ID: "c2", CourseID: "crs", Status: models.ClassStatusNotStarted}, TuitionFee: targetFee},
	}}
	return repo, classes
}

func TestEnrollmentServiceChangeClassUpgrade(t *testing.T) {
	repo, classes := changeFixture(5_500_000)
	payments := &mockChangePayments{payment: &models.Payment{ID: "p1", Amount: 1_500_000, Status: models.TransactionStatusPending}}
	svc := newLifecycleService(repo, classes, nil, nil, payments, nil)

	result, err := svc.ChangeClass(context.Background(), "e1", ChangeClassRequest{TargetClassID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), result.FeeDelta)
	require.NotNil(t, result.Payment)
	assert.Equal(t, int64(1_500_000), payments.amount)
	assert.Zero(t, result.WalletCredited)
	assert.Nil(t, repo.credit)
	assert.Equal(t, models.PaymentStatusUnderpaid, result.Enrollment.PaymentStatus)
	assert.Equal(t, models.RegistrationStatusCancelled, repo.enrollments["e1"].Status)
}

func TestEnrollmentServiceChangeClassDowngrade(t *testing.T) {
	repo, classes := changeFixture(3_000_000)
	payments := &mockChangePayments{}
	svc := newLifecycleService(repo, classes, nil, nil, payments, nil)

	result, err := svc.ChangeClass(context.Background(), "e1", ChangeClassRequest{TargetClassID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, int64(-1_000_000), result.FeeDelta)
	assert.Equal(t, int64(1_000_000), result.WalletCredited)
	assert.Nil(t, result.Payment)
	assert.Zero(t, payments.calls)
	require.NotNil(t, repo.credit)
	assert.Equal(t, models.WalletTxChangeRefund, repo.credit.Type)
	assert.Equal(t, int64(1_000_000), repo.credit.Amount)
	assert.Equal(t, models.PaymentStatusPaid, result.Enrollment.PaymentStatus)
}

func TestEnrollmentServiceChangeClassEqualFees(t *testing.T) {
	repo, classes := changeFixture(4_000_000)
	payments := &mockChangePayments{}
	svc := newLifecycleService(repo, classes, nil, nil, payments, nil)

	result, err := svc.ChangeClass(context.Background(), "e1", ChangeClassRequest{TargetClassID: "c2"})
	require.NoError(t, err)
	assert.Zero(t, result.FeeDelta)
	assert.Nil(t, result.Payment)
	assert.Zero(t, result.WalletCredited)
	assert.Nil(t, repo.credit)
	assert.Equal(t, models.PaymentStatusPaid, result.Enrollment.PaymentStatus)
}

func TestEnrollmentServiceChangeClassIneligible(t *testing.T) {
	repo, classes := changeFixture(5_500_000)
	eligibility := allowAllEligibility()
	eligibility.change = CheckResult{Reason: "already attended 4 sessions, changes allowed up to 3"}
	svc := newLifecycleService(repo, classes, nil, eligibility, nil, nil)

	_, err := svc.ChangeClass(context.Background(), "e1", ChangeClassRequest{TargetClassID: "c2"})
	assertErrCode(t, err, "NOT_ELIGIBLE_TO_CHANGE")
}

func TestEnrollmentServiceChangeClassSameClass(t *testing.T) {
	repo, classes := changeFixture(5_500_000)
	svc := newLifecycleService(repo, classes, nil, nil, nil, nil)

	_, err := svc.ChangeClass(context.Background(), "e1", ChangeClassRequest{TargetClassID: "c1"})
	assertErrCode(t, err, "PRECONDITION_FAILED")
}

func TestEnrollmentServiceQuoteChange(t *testing.T) {
	repo, classes := changeFixture(5_500_000)
	svc := newLifecycleService(repo, classes, nil, nil, nil, nil)

	quote, err := svc.QuoteChange(context.Background(), "e1", "c2")
	require.NoError(t, err)
	assert.Equal(t, int64(4_000_000), quote.CurrentFee)
	assert.Equal(t, int64(5_500_000), quote.TargetFee)
	assert.Equal(t, int64(1_500_000), quote.AmountDue)
}

func TestEnrollmentServiceEligibilityReport(t *testing.T) {
	repo := &mockLifecycleRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusStudying, Type: models.RegistrationTypeNormal},
	}}
	eligibility := allowAllEligibility()
	eligibility.retake = CheckResult{Allowed: false, Reason: "enrollment is Studying, only completed enrollments can be retaken"}
	svc := newLifecycleService(repo, nil, nil, eligibility, nil, nil)

	report, err := svc.Eligibility(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", report.EnrollmentID)
	assert.Equal(t, models.RegistrationStatusStudying, report.Status)
	assert.Equal(t, 10, report.RemainingSessions)
	assert.True(t, report.CanReserve.Allowed)
	assert.True(t, report.CanChange.Allowed)
	assert.False(t, report.CanRetake.Allowed)
	assert.NotEmpty(t, report.CanRetake.Reason)
}

func TestEnrollmentServiceEligibilityUnknown(t *testing.T) {
	svc := newLifecycleService(&mockLifecycleRepo{}, nil, nil, nil, nil, nil)

	_, err := svc.Eligibility(context.Background(), "missing")
	assertErrCode(t, err, "NOT_FOUND")
}

func TestEnrollmentServiceRequestReservationLostRace(t *testing.T) {
	repo := &mockLifecycleRepo{
		enrollments: map[string]models.Enrollment{
			"e1": {ID: "e1", StudentID: "s1", ClassID: "c1", Status: models.RegistrationStatusStudying},
		},
		reserveErr: repository.ErrEnrollmentNotStudying,
	}
	svc := newLifecycleService(repo, nil, nil, nil, nil, nil)

	_, err := svc.RequestReservation(context.Background(), "e1", ReserveRequest{})
	assertErrCode(t, err, "CONFLICT")
}

func TestEnrollmentServiceChangeClassLostRace(t *testing.T) {
	repo, classes := changeFixture(5_500_000)
	repo.switchErr = repository.ErrEnrollmentNotStudying
	svc := newLifecycleService(repo, classes, nil, nil, nil, nil)

	_, err := svc.ChangeClass(context.Background(), "e1", ChangeClassRequest{TargetClassID: "c2"})
	assertErrCode(t, err, "CONFLICT")
}
