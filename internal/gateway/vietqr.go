package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/config"
)

// VietQRClient creates payment intents through the VietQR quick-transfer API.
// A generated QR code is returned as a hosted pay URL.
type VietQRClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewVietQRClient constructs the client from payment configuration.
func NewVietQRClient(cfg config.PaymentsConfig, logger *zap.Logger) *VietQRClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VietQRClient{
		baseURL: cfg.VietQRBaseURL,
		apiKey:  cfg.VietQRAPIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Name identifies the provider on payment records.
func (c *VietQRClient) Name() string {
	return "vietqr"
}

type vietQRCreateRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
}

type vietQRCreateResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		Reference string `json:"reference"`
		QRLink    string `json:"qr_link"`
	} `json:"data"`
}

// CreatePayment requests a QR payment link for the given amount.
func (c *VietQRClient) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	body, err := json.Marshal(vietQRCreateRequest{
		Amount:      req.Amount,
		Description: req.Description,
		OrderID:     req.EnrollmentID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode vietqr request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build vietqr request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Apikey "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call vietqr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vietqr returned status %d", resp.StatusCode)
	}

	var payload vietQRCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode vietqr response: %w", err)
	}
	if payload.Code != "00" {
		return nil, fmt.Errorf("vietqr rejected payment: %s %s", payload.Code, payload.Desc)
	}

	c.logger.Debug("vietqr payment created",
		zap.String("reference", payload.Data.Reference),
		zap.Int64("amount", req.Amount))

	return &models.PaymentIntent{
		Reference: payload.Data.Reference,
		PayURL:    payload.Data.QRLink,
	}, nil
}
