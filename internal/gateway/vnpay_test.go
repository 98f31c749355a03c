package gateway

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/config"
)

func testVNPayClient() *VNPayClient {
	client := NewVNPayClient(config.PaymentsConfig{
		VNPayBaseURL:  "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		VNPayMerchant: "IZONE01",
		VNPaySecret:   "secret",
		ReturnURL:     "https://portal.example/payments/return",
	}, nil)
	client.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return client
}

func TestVNPayCreatePayment(t *testing.T) {
	client := testVNPayClient()

	intent, err := client.CreatePayment(context.Background(), models.PaymentRequest{
		StudentID:   "s1",
		Amount:      1_500_000,
		Description: "class change fee difference",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.Reference)
	assert.True(t, strings.HasPrefix(intent.PayURL, "https://sandbox.vnpayment.vn/"))

	parsed, err := url.Parse(intent.PayURL)
	require.NoError(t, err)
	query := parsed.Query()
	// VNPay amounts carry two extra zeroes.
	assert.Equal(t, "150000000", query.Get("vnp_Amount"))
	assert.Equal(t, "IZONE01", query.Get("vnp_TmnCode"))
	assert.Equal(t, "20260314093000", query.Get("vnp_CreateDate"))
	assert.NotEmpty(t, query.Get("vnp_SecureHash"))
}

func TestVNPayCreatePaymentMissingCredentials(t *testing.T) {
	client := NewVNPayClient(config.PaymentsConfig{}, nil)

	_, err := client.CreatePayment(context.Background(), models.PaymentRequest{Amount: 1_000})
	require.Error(t, err)
}

func TestVNPayVerifyCallback(t *testing.T) {
	client := testVNPayClient()

	params := url.Values{}
	params.Set("vnp_TxnRef", "abc123")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_Amount", "150000000")

	hash := signVNPay(params, "secret")
	assert.True(t, client.VerifyCallback(params, hash))
	assert.False(t, client.VerifyCallback(params, "deadbeef"))
}
