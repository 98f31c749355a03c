package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type reservationRepository interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	FindDetailByID(ctx context.Context, id string) (*models.ReservationDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, approvedBy *string) error
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// ReservationService handles admin review of leave-of-absence reservations
// and the periodic expiry sweep.
type ReservationService struct {
	repo     reservationRepository
	notifier lifecycleNotifier
	logger   *zap.Logger
}

// NewReservationService constructs ReservationService.
func NewReservationService(repo reservationRepository, notifier lifecycleNotifier, logger *zap.Logger) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{repo: repo, notifier: notifier, logger: logger}
}

// List returns reservations with pagination metadata.
func (s *ReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, *models.Pagination, error) {
	reservations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
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
	return reservations, pagination, nil
}

// Get returns one reservation with enrollment context.
func (s *ReservationService) Get(ctx context.Context, id string) (*models.ReservationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	return detail, nil
}

// Approve moves a pending reservation to APPROVED, recording the reviewer.
func (s *ReservationService) Approve(ctx context.Context, id, reviewerID string) (*models.ReservationDetail, error) {
	return s.review(ctx, id, reviewerID, models.ReservationStatusApproved)
}

// Reject moves a pending reservation to REJECTED, recording the reviewer.
// The underlying enrollment stays RESERVED until an admin resolves it.
func (s *ReservationService) Reject(ctx context.Context, id, reviewerID string) (*models.ReservationDetail, error) {
	return s.review(ctx, id, reviewerID, models.ReservationStatusRejected)
}

func (s *ReservationService) review(ctx context.Context, id, reviewerID string, status models.ReservationStatus) (*models.ReservationDetail, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	if reservation.Status != models.ReservationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only pending reservations can be reviewed")
	}
	if err := s.repo.UpdateStatus(ctx, id, status, &reviewerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reservation")
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation detail")
	}
	if s.notifier != nil {
		if status == models.ReservationStatusApproved {
			s.notifier.NotifyStudent(detail.StudentID, "Reservation approved",
				"Your leave of absence was approved. You can continue your course in any class of the same course while it remains valid.")
		} else {
			s.notifier.NotifyStudent(detail.StudentID, "Reservation rejected",
				"Your leave of absence request was rejected. Please contact the academic office.")
		}
	}
	return detail, nil
}

// ExpireOverdue sweeps approved reservations past their deadline to EXPIRED.
// Returns how many reservations expired.
func (s *ReservationService) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire reservations")
	}
	if expired > 0 {
		s.logger.Info("reservations expired", zap.Int("count", expired))
	}
	return expired, nil
}
