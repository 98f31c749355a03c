package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/config"
)

func TestVietQRCreatePayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/generate", r.URL.Path)
		assert.Equal(t, "Apikey test-key", r.Header.Get("Authorization"))

		var body vietQRCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(2_000_000), body.Amount)

		json.NewEncoder(w).Encode(vietQRCreateResponse{
			Code: "00",
			Data: struct {
				Reference string `json:"reference"`
				QRLink    string `json:"qr_link"`
			}{Reference: "VQR-42", QRLink: "https://img.vietqr.io/VQR-42"},
		})
	}))
	defer server.Close()

	client := NewVietQRClient(config.PaymentsConfig{
		VietQRBaseURL:  server.URL,
		VietQRAPIKey:   "test-key",
		RequestTimeout: time.Second,
	}, nil)

	intent, err := client.CreatePayment(context.Background(), models.PaymentRequest{
		StudentID:    "s1",
		EnrollmentID: "e1",
		Amount:       2_000_000,
		Description:  "tuition",
	})
	require.NoError(t, err)
	assert.Equal(t, "VQR-42", intent.Reference)
	assert.Equal(t, "https://img.vietqr.io/VQR-42", intent.PayURL)
}

func TestVietQRCreatePaymentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(vietQRCreateResponse{Code: "91", Desc: "invalid merchant"})
	}))
	defer server.Close()

	client := NewVietQRClient(config.PaymentsConfig{VietQRBaseURL: server.URL}, nil)

	_, err := client.CreatePayment(context.Background(), models.PaymentRequest{Amount: 1_000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "91")
}

func TestVietQRCreatePaymentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewVietQRClient(config.PaymentsConfig{VietQRBaseURL: server.URL}, nil)

	_, err := client.CreatePayment(context.Background(), models.PaymentRequest{Amount: 1_000})
	require.Error(t, err)
}
