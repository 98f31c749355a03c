package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/internal/repository"
	"github.com/izone-edu/izone-api/pkg/config"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	CreateWithSeatCheck(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, cancelledAt *time.Time, reason *string) error
	CompleteByClass(ctx context.Context, classID string) (int, error)
	Reserve(ctx context.Context, enrollmentID string, reservation *models.Reservation) error
	ConsumeReservation(ctx context.Context, reservationID string, enrollment *models.Enrollment) error
	SwitchClass(ctx context.Context, oldID string, closeReason string, enrollment *models.Enrollment, walletCredit *models.WalletTransaction) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type reservationDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ReservationDetail, error)
}

type eligibilityChecker interface {
	CheckClassOpen(ctx context.Context, classID string) (CheckResult, error)
	CheckDuplicate(ctx context.Context, studentID, classID string) (CheckResult, error)
	CheckSeat(ctx context.Context, classID string) (CheckResult, error)
	CanReserve(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error)
	CanRetake(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error)
	CanChange(ctx context.Context, enrollment *models.Enrollment) (CheckResult, error)
	RemainingSessions(ctx context.Context, classID string) (int, error)
}

type changePaymentStarter interface {
	StartChangePayment(ctx context.Context, studentID, enrollmentID string, amount int64) (*models.Payment, error)
}

type lifecycleNotifier interface {
	NotifyStudent(studentID, title, message string)
	NotifyClass(classID, title, message string)
}

// RegisterRequest describes a normal registration payload.
type RegisterRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

// CancelRequest describes a cancellation payload. A reason is mandatory.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ReserveRequest describes a leave-of-absence request payload.
type ReserveRequest struct {
	Reason string `json:"reason"`
}

// ContinueRequest describes a continuation payload consuming a reservation.
type ContinueRequest struct {
	TargetClassID string `json:"target_class_id" validate:"required"`
}

// RetakeRequest describes a retake registration payload.
type RetakeRequest struct {
	TargetClassID string `json:"target_class_id" validate:"required"`
}

// ChangeClassRequest describes a class change payload.
type ChangeClassRequest struct {
	TargetClassID string `json:"target_class_id" validate:"required"`
}

// EnrollmentService orchestrates the enrollment lifecycle. Eligibility is
// pre-checked for friendly errors; the repository re-verifies seats and
// reservation state under row locks so concurrent requests cannot oversell.
type EnrollmentService struct {
	repo         enrollmentRepository
	students     studentReader
	classes      classDetailReader
	reservations reservationDetailReader
	eligibility  eligibilityChecker
	fees         *FeeService
	payments     changePaymentStarter
	notifier     lifecycleNotifier
	metrics      *MetricsService
	cfg          config.EnrollmentConfig
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, classes classDetailReader, reservations reservationDetailReader, eligibility eligibilityChecker, fees *FeeService, payments changePaymentStarter, notifier lifecycleNotifier, cfg config.EnrollmentConfig, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fees == nil {
		fees = NewFeeService()
	}
	return &EnrollmentService{
		repo:         repo,
		students:     students,
		classes:      classes,
		reservations: reservations,
		eligibility:  eligibility,
		fees:         fees,
		payments:     payments,
		notifier:     notifier,
		cfg:          cfg,
		validator:    validate,
		logger:       logger,
	}
}

// SetMetrics attaches the metrics collector. Optional; all counters are
// no-ops until set.
func (s *EnrollmentService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Get returns one enrollment with student and course context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Register enrolls a student into a class as a normal, fee-bearing
// registration. The new enrollment starts STUDYING and UNPAID.
func (s *EnrollmentService) Register(ctx context.Context, req RegisterRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	open, err := s.eligibility.CheckClassOpen(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if !open.Allowed {
		return nil, appErrors.Clone(appErrors.ErrClassNotOpen, open.Reason)
	}
	dup, err := s.eligibility.CheckDuplicate(ctx, req.StudentID, req.ClassID)
	if err != nil {
		return nil, err
	}
	if !dup.Allowed {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, dup.Reason)
	}
	seat, err := s.eligibility.CheckSeat(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if !seat.Allowed {
		return nil, appErrors.Clone(appErrors.ErrClassFull, seat.Reason)
	}

	enrollment := &models.Enrollment{
		StudentID:     req.StudentID,
		ClassID:       req.ClassID,
		RegisteredAt:  time.Now().UTC(),
		Status:        models.RegistrationStatusStudying,
		PaymentStatus: models.PaymentStatusUnpaid,
		Type:          models.RegistrationTypeNormal,
	}
	if err := s.repo.CreateWithSeatCheck(ctx, enrollment); err != nil {
		if err == repository.ErrNoSeat {
			return nil, appErrors.ErrClassFull
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	s.metrics.RecordEnrollment(models.RegistrationTypeNormal)
	if s.notifier != nil {
		s.notifier.NotifyStudent(detail.StudentID, "Registration confirmed",
			fmt.Sprintf("You are registered for %s. Tuition due: %d VND.", detail.CourseName, detail.TuitionFee))
	}
	return detail, nil
}

// Cancel withdraws an enrollment. Cancelled rows are kept as history; the
// reason is mandatory and stored alongside the timestamp.
func (s *EnrollmentService) Cancel(ctx context.Context, id string, req CancelRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "a cancellation reason is required")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.RegistrationStatusCancelled {
		return nil, appErrors.ErrAlreadyCancelled
	}
	if enrollment.Status == models.RegistrationStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "completed enrollments cannot be cancelled")
	}

	now := time.Now().UTC()
	reason := req.Reason
	if err := s.repo.UpdateStatus(ctx, id, models.RegistrationStatusCancelled, &now, &reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	if s.notifier != nil {
		s.notifier.NotifyStudent(detail.StudentID, "Enrollment cancelled",
			fmt.Sprintf("Your enrollment in %s was cancelled: %s", detail.CourseName, reason))
	}
	return detail, nil
}

// CompleteClass finishes a class and flips all of its studying enrollments to
// COMPLETED in one transaction. Returns how many enrollments completed.
func (s *EnrollmentService) CompleteClass(ctx context.Context, classID string) (int, error) {
	class, err := s.classes.FindDetailByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status == models.ClassStatusFinished {
		return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "class already finished")
	}
	if class.Status == models.ClassStatusCancelled {
		return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled classes cannot be completed")
	}

	completed, err := s.repo.CompleteByClass(ctx, classID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete class")
	}
	s.logger.Info("class completed",
		zap.String("class_id", classID),
		zap.Int("enrollments_completed", completed))
	if s.notifier != nil {
		s.notifier.NotifyClass(classID, "Course finished",
			fmt.Sprintf("%s has finished. Congratulations on completing the course!", class.CourseName))
	}
	return completed, nil
}

// RequestReservation opens a leave-of-absence for a studying enrollment. The
// enrollment flips to RESERVED and the reservation awaits admin approval.
func (s *EnrollmentService) RequestReservation(ctx context.Context, enrollmentID string, req ReserveRequest) (*models.Reservation, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	check, err := s.eligibility.CanReserve(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return nil, appErrors.Clone(appErrors.ErrIneligibleReservation, check.Reason)
	}

	remaining, err := s.eligibility.RemainingSessions(ctx, enrollment.ClassID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reservation := &models.Reservation{
		EnrollmentID:      enrollmentID,
		CreatedAt:         now,
		RemainingSessions: remaining,
		ExpiresAt:         now.Add(s.cfg.ReservationValidity),
		Status:            models.ReservationStatusPending,
	}
	if req.Reason != "" {
		reason := req.Reason
		reservation.Reason = &reason
	}
	if err := s.repo.Reserve(ctx, enrollmentID, reservation); err != nil {
		if err == repository.ErrEnrollmentNotStudying {
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment changed state, please retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reservation")
	}
	if s.notifier != nil {
		s.notifier.NotifyStudent(enrollment.StudentID, "Reservation requested",
			fmt.Sprintf("Your leave of absence with %d remaining sessions is pending approval.", remaining))
	}
	return reservation, nil
}

// Continue consumes an approved reservation and registers the student into a
// class of the same course. The continuation is fee-exempt.
func (s *EnrollmentService) Continue(ctx context.Context, reservationID string, req ContinueRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid continuation payload")
	}
	reservation, err := s.reservations.FindDetailByID(ctx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}

	now := time.Now().UTC()
	switch {
	case reservation.Status == models.ReservationStatusUsed:
		return nil, appErrors.ErrReservationUsed
	case reservation.Status == models.ReservationStatusExpired:
		return nil, appErrors.ErrReservationExpired
	case reservation.Status != models.ReservationStatusApproved:
		return nil, appErrors.ErrReservationNotApproved
	case !now.Before(reservation.ExpiresAt):
		return nil, appErrors.ErrReservationExpired
	}

	target, err := s.classes.FindDetailByID(ctx, req.TargetClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target class")
	}
	if target.CourseID != reservation.CourseID {
		return nil, appErrors.ErrClassNotSameCourse
	}
	if target.Status == models.ClassStatusFinished || target.Status == models.ClassStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrClassNotOpen, "target class is no longer running")
	}
	if target.ID == reservation.ClassID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "continuation must target a different class")
	}
	seat, err := s.eligibility.CheckSeat(ctx, req.TargetClassID)
	if err != nil {
		return nil, err
	}
	if !seat.Allowed {
		return nil, appErrors.Clone(appErrors.ErrClassFull, seat.Reason)
	}

	enrollment := &models.Enrollment{
		StudentID:     reservation.StudentID,
		ClassID:       req.TargetClassID,
		RegisteredAt:  now,
		Status:        models.RegistrationStatusStudying,
		PaymentStatus: models.PaymentStatusPaid,
		Type:          models.RegistrationTypeContinued,
	}
	if err := s.repo.ConsumeReservation(ctx, reservationID, enrollment); err != nil {
		switch err {
		case repository.ErrReservationConsumed:
			return nil, appErrors.ErrReservationUsed
		case repository.ErrReservationUnavailable:
			return nil, appErrors.Clone(appErrors.ErrReservationNotApproved, "reservation is no longer available")
		case repository.ErrNoSeat:
			return nil, appErrors.ErrClassFull
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to consume reservation")
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	s.metrics.RecordEnrollment(models.RegistrationTypeContinued)
	if s.notifier != nil {
		s.notifier.NotifyStudent(detail.StudentID, "Welcome back",
			fmt.Sprintf("Your studies in %s continue in a new class. No additional fee is due.", detail.CourseName))
	}
	return detail, nil
}

// Retake registers a failed student into another class of the same course
// free of charge.
func (s *EnrollmentService) Retake(ctx context.Context, enrollmentID string, req RetakeRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid retake payload")
	}
	source, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	check, err := s.eligibility.CanRetake(ctx, &source.Enrollment)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return nil, appErrors.Clone(appErrors.ErrNotEligibleToRetake, check.Reason)
	}

	target, err := s.classes.FindDetailByID(ctx, req.TargetClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target class")
	}
	if target.CourseID != source.CourseID {
		return nil, appErrors.ErrClassNotSameCourse
	}
	if target.Status == models.ClassStatusFinished || target.Status == models.ClassStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrClassNotOpen, "target class is no longer running")
	}
	dup, err := s.eligibility.CheckDuplicate(ctx, source.StudentID, req.TargetClassID)
	if err != nil {
		return nil, err
	}
	if !dup.Allowed {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, dup.Reason)
	}

	enrollment := &models.Enrollment{
		StudentID:     source.StudentID,
		ClassID:       req.TargetClassID,
		RegisteredAt:  time.Now().UTC(),
		Status:        models.RegistrationStatusStudying,
		PaymentStatus: models.PaymentStatusPaid,
		Type:          models.RegistrationTypeRetake,
	}
	if err := s.repo.CreateWithSeatCheck(ctx, enrollment); err != nil {
		if err == repository.ErrNoSeat {
			return nil, appErrors.ErrClassFull
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create retake enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	s.metrics.RecordEnrollment(models.RegistrationTypeRetake)
	if s.notifier != nil {
		s.notifier.NotifyStudent(detail.StudentID, "Retake registered",
			fmt.Sprintf("You are registered to retake %s free of charge.", detail.CourseName))
	}
	return detail, nil
}

// ChangeClass moves a studying enrollment to a different class and settles
// the fee difference. A positive delta starts an external payment; a negative
// delta credits the student's wallet in the same transaction as the switch.
func (s *EnrollmentService) ChangeClass(ctx context.Context, enrollmentID string, req ChangeClassRequest) (*models.ChangeClassResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class change payload")
	}
	source, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if req.TargetClassID == source.ClassID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "already in target class")
	}

	check, err := s.eligibility.CanChange(ctx, &source.Enrollment)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return nil, appErrors.Clone(appErrors.ErrNotEligibleToChange, check.Reason)
	}

	target, err := s.classes.FindDetailByID(ctx, req.TargetClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target class")
	}
	if target.Status == models.ClassStatusFinished || target.Status == models.ClassStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrClassNotOpen, "target class is no longer running")
	}
	dup, err := s.eligibility.CheckDuplicate(ctx, source.StudentID, req.TargetClassID)
	if err != nil {
		return nil, err
	}
	if !dup.Allowed {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, dup.Reason)
	}

	quote := s.fees.QuoteChange(source.TuitionFee, target.TuitionFee)
	enrollment := &models.Enrollment{
		StudentID:     source.StudentID,
		ClassID:       req.TargetClassID,
		RegisteredAt:  time.Now().UTC(),
		Status:        models.RegistrationStatusStudying,
		PaymentStatus: s.fees.PaymentStatusForDelta(quote.Delta),
		Type:          models.RegistrationTypeNormal,
	}

	var walletCredit *models.WalletTransaction
	if quote.RefundDue > 0 {
		note := fmt.Sprintf("refund for class change from %s", source.ClassID)
		walletCredit = &models.WalletTransaction{
			StudentID:    source.StudentID,
			Type:         models.WalletTxChangeRefund,
			Amount:       quote.RefundDue,
			EnrollmentID: &source.ID,
			Note:         &note,
		}
	}

	closeReason := fmt.Sprintf("changed to class %s", req.TargetClassID)
	if err := s.repo.SwitchClass(ctx, enrollmentID, closeReason, enrollment, walletCredit); err != nil {
		switch err {
		case repository.ErrNoSeat:
			return nil, appErrors.ErrClassFull
		case repository.ErrEnrollmentNotStudying:
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment changed state, please retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change class")
	}

	result := &models.ChangeClassResult{FeeDelta: quote.Delta, WalletCredited: quote.RefundDue}

	if quote.AmountDue > 0 && s.payments != nil {
		payment, err := s.payments.StartChangePayment(ctx, source.StudentID, enrollment.ID, quote.AmountDue)
		if err != nil {
			// The switch has already committed; the enrollment stays
			// UNDERPAID and the payment can be started again later.
			s.logger.Warn("change payment could not be started",
				zap.String("enrollment_id", enrollment.ID),
				zap.Int64("amount_due", quote.AmountDue),
				zap.Error(err))
		} else {
			result.Payment = payment
		}
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	result.Enrollment = detail
	s.metrics.RecordEnrollment(models.RegistrationTypeNormal)

	if s.notifier != nil {
		switch {
		case quote.AmountDue > 0:
			s.notifier.NotifyStudent(detail.StudentID, "Class changed",
				fmt.Sprintf("You moved to a new %s class. Additional fee due: %d VND.", detail.CourseName, quote.AmountDue))
		case quote.RefundDue > 0:
			s.notifier.NotifyStudent(detail.StudentID, "Class changed",
				fmt.Sprintf("You moved to a new %s class. %d VND was credited to your wallet.", detail.CourseName, quote.RefundDue))
		default:
			s.notifier.NotifyStudent(detail.StudentID, "Class changed",
				fmt.Sprintf("You moved to a new %s class. No fee difference applies.", detail.CourseName))
		}
	}
	return result, nil
}

// EligibilityReport summarizes which lifecycle transitions an enrollment
// currently qualifies for, with the denial reason for each blocked one.
type EligibilityReport struct {
	EnrollmentID      string                    `json:"enrollment_id"`
	Status            models.RegistrationStatus `json:"status"`
	RemainingSessions int                       `json:"remaining_sessions"`
	CanReserve        CheckResult               `json:"can_reserve"`
	CanRetake         CheckResult               `json:"can_retake"`
	CanChange         CheckResult               `json:"can_change"`
}

// Eligibility evaluates every lifecycle rule for an enrollment so the client
// never re-derives them.
func (s *EnrollmentService) Eligibility(ctx context.Context, enrollmentID string) (*EligibilityReport, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	remaining, err := s.eligibility.RemainingSessions(ctx, enrollment.ClassID)
	if err != nil {
		return nil, err
	}
	reserve, err := s.eligibility.CanReserve(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	retake, err := s.eligibility.CanRetake(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	change, err := s.eligibility.CanChange(ctx, enrollment)
	if err != nil {
		return nil, err
	}

	return &EligibilityReport{
		EnrollmentID:      enrollment.ID,
		Status:            enrollment.Status,
		RemainingSessions: remaining,
		CanReserve:        reserve,
		CanRetake:         retake,
		CanChange:         change,
	}, nil
}

// QuoteChange previews the fee settlement of a class change without applying
// it.
func (s *EnrollmentService) QuoteChange(ctx context.Context, enrollmentID, targetClassID string) (*FeeQuote, error) {
	source, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	target, err := s.classes.FindDetailByID(ctx, targetClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target class")
	}
	quote := s.fees.QuoteChange(source.TuitionFee, target.TuitionFee)
	return &quote, nil
}
