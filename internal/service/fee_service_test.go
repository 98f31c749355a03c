package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/izone-edu/izone-api/internal/models"
)

func TestFeeServiceQuoteChange(t *testing.T) {
	fees := NewFeeService()

	upgrade := fees.QuoteChange(4_000_000, 5_500_000)
	assert.Equal(t, int64(1_500_000), upgrade.Delta)
	assert.Equal(t, int64(1_500_000), upgrade.AmountDue)
	assert.Zero(t, upgrade.RefundDue)

	downgrade := fees.QuoteChange(5_500_000, 4_000_000)
	assert.Equal(t, int64(-1_500_000), downgrade.Delta)
	assert.Zero(t, downgrade.AmountDue)
	assert.Equal(t, int64(1_500_000), downgrade.RefundDue)

	equal := fees.QuoteChange(4_000_000, 4_000_000)
	assert.Zero(t, equal.Delta)
	assert.Zero(t, equal.AmountDue)
	assert.Zero(t, equal.RefundDue)
}

func TestFeeServicePaymentStatusForDelta(t *testing.T) {
	fees := NewFeeService()

	assert.Equal(t, models.PaymentStatusUnderpaid, fees.PaymentStatusForDelta(500_000))
	assert.Equal(t, models.PaymentStatusPaid, fees.PaymentStatusForDelta(0))
	assert.Equal(t, models.PaymentStatusPaid, fees.PaymentStatusForDelta(-500_000))
}
