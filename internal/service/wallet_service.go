package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/internal/repository"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
)

type walletRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.WalletTransaction, error)
	Balance(ctx context.Context, studentID string) (int64, error)
	Credit(ctx context.Context, entry *models.WalletTransaction) error
	Debit(ctx context.Context, entry *models.WalletTransaction) error
}

// WalletAdjustmentRequest describes a manual credit or debit.
type WalletAdjustmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Note      string `json:"note"`
}

// WalletBalance pairs a student with their current balance.
type WalletBalance struct {
	StudentID string `json:"student_id"`
	Balance   int64  `json:"balance"`
}

// WalletService exposes the student wallet: balance, ledger history and
// manual adjustments. Refunds from class changes are credited by the
// enrollment switch itself.
type WalletService struct {
	repo      walletRepository
	notifier  lifecycleNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWalletService constructs WalletService.
func NewWalletService(repo walletRepository, notifier lifecycleNotifier, validate *validator.Validate, logger *zap.Logger) *WalletService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Balance returns the student's current wallet balance.
func (s *WalletService) Balance(ctx context.Context, studentID string) (*WalletBalance, error) {
	balance, err := s.repo.Balance(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wallet balance")
	}
	return &WalletBalance{StudentID: studentID, Balance: balance}, nil
}

// History returns the student's ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, studentID string) ([]models.WalletTransaction, error) {
	transactions, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wallet history")
	}
	return transactions, nil
}

// Credit adds funds to a student wallet.
func (s *WalletService) Credit(ctx context.Context, req WalletAdjustmentRequest) (*models.WalletTransaction, error) {
	entry, err := s.adjust(ctx, req, models.WalletTxCredit)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyStudent(req.StudentID, "Wallet credited",
			fmt.Sprintf("%d VND was added to your wallet.", req.Amount))
	}
	return entry, nil
}

// Debit removes funds from a student wallet, for example to settle tuition
// from credit.
func (s *WalletService) Debit(ctx context.Context, req WalletAdjustmentRequest) (*models.WalletTransaction, error) {
	return s.adjust(ctx, req, models.WalletTxDebit)
}

func (s *WalletService) adjust(ctx context.Context, req WalletAdjustmentRequest, txType models.WalletTransactionType) (*models.WalletTransaction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wallet adjustment payload")
	}
	entry := &models.WalletTransaction{
		StudentID: req.StudentID,
		Type:      txType,
		Amount:    req.Amount,
	}
	if req.Note != "" {
		note := req.Note
		entry.Note = &note
	}

	var err error
	if txType == models.WalletTxDebit {
		err = s.repo.Debit(ctx, entry)
	} else {
		err = s.repo.Credit(ctx, entry)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, appErrors.ErrInsufficientBalance
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to adjust wallet")
	}
	return entry, nil
}
