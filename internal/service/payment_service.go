package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

// PaymentProvider is an external payment gateway. Implementations live in
// internal/gateway.
type PaymentProvider interface {
	Name() string
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error)
}

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Settle(ctx context.Context, id string, status models.TransactionStatus, settledAt time.Time) error
}

type paymentEnrollmentRepo interface {
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
}

// StartPaymentRequest describes a payment initiation payload.
type StartPaymentRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	Description  string `json:"description"`
}

// ConfirmPaymentRequest describes a provider callback payload.
type ConfirmPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
	Success   bool   `json:"success"`
}

// PaymentService drives external fee settlement. Payments are created
// PENDING against a provider reference and settled when the provider calls
// back.
type PaymentService struct {
	repo        paymentRepository
	enrollments paymentEnrollmentRepo
	provider    PaymentProvider
	notifier    lifecycleNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(repo paymentRepository, enrollments paymentEnrollmentRepo, provider PaymentProvider, notifier lifecycleNotifier, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, enrollments: enrollments, provider: provider, notifier: notifier, validator: validate, logger: logger}
}

// SetMetrics attaches the metrics collector. Optional; settlement counters
// are no-ops until set.
func (s *PaymentService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// List returns payments with pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
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
	return payments, pagination, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Start asks the provider for a payment intent and records the PENDING
// payment.
func (s *PaymentService) Start(ctx context.Context, req StartPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if s.provider == nil {
		return nil, appErrors.ErrProviderUnavailable
	}

	intent, err := s.provider.CreatePayment(ctx, models.PaymentRequest{
		StudentID:    req.StudentID,
		EnrollmentID: req.EnrollmentID,
		Amount:       req.Amount,
		Description:  req.Description,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProviderUnavailable.Code, appErrors.ErrProviderUnavailable.Status, appErrors.ErrProviderUnavailable.Message)
	}

	enrollmentID := req.EnrollmentID
	payment := &models.Payment{
		StudentID:    req.StudentID,
		EnrollmentID: &enrollmentID,
		Amount:       req.Amount,
		Reference:    intent.Reference,
		Method:       s.provider.Name(),
		Status:       models.TransactionStatusPending,
		PayURL:       intent.PayURL,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.logger.Info("payment started",
		zap.String("payment_id", payment.ID),
		zap.String("reference", payment.Reference),
		zap.String("method", payment.Method),
		zap.Int64("amount", payment.Amount))
	return payment, nil
}

// StartChangePayment initiates the settlement of a class change fee
// difference.
func (s *PaymentService) StartChangePayment(ctx context.Context, studentID, enrollmentID string, amount int64) (*models.Payment, error) {
	return s.Start(ctx, StartPaymentRequest{
		StudentID:    studentID,
		EnrollmentID: enrollmentID,
		Amount:       amount,
		Description:  "class change fee difference",
	})
}

// Confirm settles a pending payment from a provider callback. A successful
// settlement marks the linked enrollment PAID.
func (s *PaymentService) Confirm(ctx context.Context, req ConfirmPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}
	payment, err := s.repo.FindByReference(ctx, req.Reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.TransactionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already settled")
	}

	status := models.TransactionStatusFailed
	if req.Success {
		status = models.TransactionStatusSuccess
	}
	now := time.Now().UTC()
	if err := s.repo.Settle(ctx, payment.ID, status, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle payment")
	}
	payment.Status = status
	payment.SettledAt = &now
	s.metrics.RecordPaymentSettled(status)

	if req.Success && payment.EnrollmentID != nil {
		if err := s.enrollments.UpdatePaymentStatus(ctx, *payment.EnrollmentID, models.PaymentStatusPaid); err != nil {
			// The payment settled; surface the inconsistency instead of
			// failing the callback.
			s.logger.Error("payment settled but enrollment not marked paid",
				zap.String("payment_id", payment.ID),
				zap.String("enrollment_id", *payment.EnrollmentID),
				zap.Error(err))
		}
	}

	if s.notifier != nil {
		if req.Success {
			s.notifier.NotifyStudent(payment.StudentID, "Payment received",
				fmt.Sprintf("Your payment of %d VND was received. Thank you!", payment.Amount))
		} else {
			s.notifier.NotifyStudent(payment.StudentID, "Payment failed",
				fmt.Sprintf("Your payment of %d VND did not go through. Please try again.", payment.Amount))
		}
	}
	return payment, nil
}
