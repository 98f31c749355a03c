package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/izone-edu/izone-api/internal/models"
)

// PaymentRepository handles persistence of payment transactions.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments filtered by the provided criteria.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	base := `FROM payments p`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.enrollment_id, p.amount, p.reference, p.method,
        p.status, p.pay_url, p.created_at, p.settled_at
        %s ORDER BY p.created_at %s LIMIT %d OFFSET %d`, base+clause, order, size, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID returns a payment by its ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, student_id, enrollment_id, amount, reference, method, status, pay_url, created_at, settled_at
        FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByReference returns the payment with the given provider reference.
func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	const query = `SELECT id, student_id, enrollment_id, amount, reference, method, status, pay_url, created_at, settled_at
        FROM payments WHERE reference = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, reference); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create persists a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.Status == "" {
		payment.Status = models.TransactionStatusPending
	}
	const query = `INSERT INTO payments (id, student_id, enrollment_id, amount, reference, method, status, pay_url, created_at, settled_at)
        VALUES (:id, :student_id, :enrollment_id, :amount, :reference, :method, :status, :pay_url, :created_at, :settled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Settle transitions a payment to its final status.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status models.TransactionStatus, settledAt time.Time) error {
	const query = `UPDATE payments SET status = $2, settled_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, settledAt); err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}
	return nil
}
