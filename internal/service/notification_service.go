package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/config"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
	"github.com/izone-edu/izone-api/pkg/jobs"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id string, readAt time.Time) error
}

// NotificationService persists portal notifications. Dispatch runs through a
// background queue and is fire-and-forget: a dropped notification is logged,
// never surfaced to the caller.
type NotificationService struct {
	repo   notificationRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs NotificationService with its dispatch
// queue. Call Start before enqueueing and Stop on shutdown.
func NewNotificationService(repo notificationRepository, cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	return s.repo.Create(ctx, notification)
}

func (s *NotificationService) enqueue(notification *models.Notification) {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	notification.CreatedAt = time.Now().UTC()
	job := jobs.Job{ID: notification.ID, Type: "notification", Payload: notification}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("title", notification.Title),
			zap.Error(err))
	}
}

// NotifyStudent queues a notification addressed to one student.
func (s *NotificationService) NotifyStudent(studentID, title, message string) {
	recipient := studentID
	s.enqueue(&models.Notification{
		Audience:    models.AudienceStudent,
		RecipientID: &recipient,
		Title:       title,
		Message:     message,
	})
}

// NotifyClass queues a notification addressed to everyone in a class.
func (s *NotificationService) NotifyClass(classID, title, message string) {
	class := classID
	s.enqueue(&models.Notification{
		Audience: models.AudienceClass,
		ClassID:  &class,
		Title:    title,
		Message:  message,
	})
}

// Broadcast queues a notification visible to all users.
func (s *NotificationService) Broadcast(title, message string) {
	s.enqueue(&models.Notification{
		Audience: models.AudienceBroadcast,
		Title:    title,
		Message:  message,
	})
}

// List returns notifications with pagination metadata.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
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
	return notifications, pagination, nil
}

// MarkRead stamps a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}
