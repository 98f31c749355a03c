package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
)

type mockPaymentRepo struct {
	payments map[string]models.Payment
	created  *models.Payment
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	return nil, 0, nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.Reference == reference {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.Payment)
	}
	if payment.ID == "" {
		payment.ID = "new-payment"
	}
	m.payments[payment.ID] = *payment
	m.created = payment
	return nil
}

func (m *mockPaymentRepo) Settle(ctx context.Context, id string, status models.TransactionStatus, settledAt time.Time) error {
	if p, ok := m.payments[id]; ok {
		p.Status = status
		p.SettledAt = &settledAt
		m.payments[id] = p
	}
	return nil
}

type mockProvider struct {
	intent *models.PaymentIntent
	err    error
	last   models.PaymentRequest
}

func (m *mockProvider) Name() string { return "vietqr" }

func (m *mockProvider) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.intent, nil
}

type mockEnrollmentUpdater struct {
	statuses map[string]models.PaymentStatus
}

func (m *mockEnrollmentUpdater) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.PaymentStatus)
	}
	m.statuses[id] = status
	return nil
}

func TestPaymentServiceStart(t *testing.T) {
	repo := &mockPaymentRepo{}
	provider := &mockProvider{intent: &models.PaymentIntent{Reference: "IZ-123", PayURL: "https://pay.example/IZ-123"}}
	svc := NewPaymentService(repo, &mockEnrollmentUpdater{}, provider, nil, validator.New(), zap.NewNop())

	payment, err := svc.Start(context.Background(), StartPaymentRequest{StudentID: "s1", EnrollmentID: "e1", Amount: 1_500_000, Description: "tuition"})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, payment.Status)
	assert.Equal(t, "IZ-123", payment.Reference)
	assert.Equal(t, "vietqr", payment.Method)
	assert.Equal(t, int64(1_500_000), provider.last.Amount)
	require.NotNil(t, repo.created)
}

func TestPaymentServiceStartProviderDown(t *testing.T) {
	repo := &mockPaymentRepo{}
	provider := &mockProvider{err: errors.New("connection refused")}
	svc := NewPaymentService(repo, &mockEnrollmentUpdater{}, provider, nil, validator.New(), zap.NewNop())

	_, err := svc.Start(context.Background(), StartPaymentRequest{StudentID: "s1", EnrollmentID: "e1", Amount: 1_000_000})
	assertErrCode(t, err, "PROVIDER_UNAVAILABLE")
	assert.Nil(t, repo.created)

	svc = NewPaymentService(repo, &mockEnrollmentUpdater{}, nil, nil, validator.New(), zap.NewNop())
	_, err = svc.Start(context.Background(), StartPaymentRequest{StudentID: "s1", EnrollmentID: "e1", Amount: 1_000_000})
	assertErrCode(t, err, "PROVIDER_UNAVAILABLE")
}

func TestPaymentServiceConfirm(t *testing.T) {
	enrollmentID := "e1"
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"p1": {ID: "p1", StudentID: "s1", EnrollmentID: &enrollmentID, Amount: 1_500_000, Reference: "IZ-123", Status: models.TransactionStatusPending},
	}}
	enrollments := &mockEnrollmentUpdater{}
	notifier := &mockNotifier{}
	svc := NewPaymentService(repo, enrollments, &mockProvider{}, notifier, validator.New(), zap.NewNop())

	payment, err := svc.Confirm(context.Background(), ConfirmPaymentRequest{Reference: "IZ-123", Success: true})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, payment.Status)
	assert.NotNil(t, payment.SettledAt)
	assert.Equal(t, models.PaymentStatusPaid, enrollments.statuses["e1"])
	assert.Contains(t, notifier.studentTitles, "Payment received")

	// A second callback for the same reference is rejected.
	_, err = svc.Confirm(context.Background(), ConfirmPaymentRequest{Reference: "IZ-123", Success: true})
	assertErrCode(t, err, "CONFLICT")
}

func TestPaymentServiceConfirmFailure(t *testing.T) {
	enrollmentID := "e1"
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"p1": {ID: "p1", StudentID: "s1", EnrollmentID: &enrollmentID, Amount: 1_500_000, Reference: "IZ-123", Status: models.TransactionStatusPending},
	}}
	enrollments := &mockEnrollmentUpdater{}
	svc := NewPaymentService(repo, enrollments, &mockProvider{}, nil, validator.New(), zap.NewNop())

	payment, err := svc.Confirm(context.Background(), ConfirmPaymentRequest{Reference: "IZ-123", Success: false})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, payment.Status)
	assert.Empty(t, enrollments.statuses)
}

func TestPaymentServiceConfirmUnknownReference(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, &mockEnrollmentUpdater{}, &mockProvider{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Confirm(context.Background(), ConfirmPaymentRequest{Reference: "missing"})
	assertErrCode(t, err, "NOT_FOUND")
}
