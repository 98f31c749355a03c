package service

import (
	"github.com/izone-edu/izone-api/internal/models"
)

// FeeQuote is the settlement math for a class change. Exactly one of
// AmountDue and RefundDue is non-zero unless the fees match.
type FeeQuote struct {
	CurrentFee int64 `json:"current_fee"`
	TargetFee  int64 `json:"target_fee"`
	Delta      int64 `json:"delta"`
	AmountDue  int64 `json:"amount_due"`
	RefundDue  int64 `json:"refund_due"`
}

// FeeService performs tuition reconciliation. All amounts are VND and the
// arithmetic is integral, so quotes are exact and side-effect free.
type FeeService struct{}

// NewFeeService constructs FeeService.
func NewFeeService() *FeeService {
	return &FeeService{}
}

// QuoteChange computes what a student owes or is refunded when moving from a
// class with currentFee to one with targetFee.
func (s *FeeService) QuoteChange(currentFee, targetFee int64) FeeQuote {
	quote := FeeQuote{CurrentFee: currentFee, TargetFee: targetFee, Delta: targetFee - currentFee}
	if quote.Delta > 0 {
		quote.AmountDue = quote.Delta
	} else if quote.Delta < 0 {
		quote.RefundDue = -quote.Delta
	}
	return quote
}

// PaymentStatusForDelta maps a settlement delta onto the payment status of
// the enrollment that results from a class change.
func (s *FeeService) PaymentStatusForDelta(delta int64) models.PaymentStatus {
	if delta > 0 {
		return models.PaymentStatusUnderpaid
	}
	return models.PaymentStatusPaid
}
