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

// NotificationRepository handles persistence of portal notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns notifications visible to the given filter. Broadcast rows are
// always included when filtering by recipient.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	base := `FROM notifications n`
	var conditions []string
	var args []interface{}

	if filter.RecipientID != "" {
		conditions = append(conditions, fmt.Sprintf("(n.recipient_id = $%d OR n.audience = 'BROADCAST')", len(args)+1))
		args = append(args, filter.RecipientID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("n.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Unread {
		conditions = append(conditions, "n.read_at IS NULL")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT n.id, n.audience, n.recipient_id, n.class_id, n.title, n.message, n.created_at, n.read_at
        %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// Create persists a notification record.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, audience, recipient_id, class_id, title, message, created_at, read_at)
        VALUES (:id, :audience, :recipient_id, :class_id, :title, :message, :created_at, :read_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkRead stamps a notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	const query = `UPDATE notifications SET read_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, readAt); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
