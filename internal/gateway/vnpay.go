package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/config"
)

// VNPayClient builds signed redirect URLs for the VNPay payment gateway.
// Unlike VietQR there is no server call; the intent is a URL the student is
// redirected to, and settlement arrives later on the callback endpoint.
type VNPayClient struct {
	baseURL   string
	merchant  string
	secret    string
	returnURL string
	logger    *zap.Logger
	now       func() time.Time
}

// NewVNPayClient constructs the client from payment configuration.
func NewVNPayClient(cfg config.PaymentsConfig, logger *zap.Logger) *VNPayClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VNPayClient{
		baseURL:   cfg.VNPayBaseURL,
		merchant:  cfg.VNPayMerchant,
		secret:    cfg.VNPaySecret,
		returnURL: cfg.ReturnURL,
		logger:    logger,
		now:       time.Now,
	}
}

// Name identifies the provider on payment records.
func (c *VNPayClient) Name() string {
	return "vnpay"
}

// CreatePayment builds the signed payment URL. VNPay amounts are in VND
// multiplied by 100.
func (c *VNPayClient) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	if c.secret == "" || c.merchant == "" {
		return nil, fmt.Errorf("vnpay credentials not configured")
	}

	reference := strings.ReplaceAll(uuid.NewString(), "-", "")
	created := c.now()

	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", c.merchant)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", reference)
	params.Set("vnp_OrderInfo", req.Description)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", c.returnURL)
	params.Set("vnp_CreateDate", created.Format("20060102150405"))
	params.Set("vnp_ExpireDate", created.Add(15*time.Minute).Format("20060102150405"))

	signed := signVNPay(params, c.secret)
	payURL := fmt.Sprintf("%s?%s&vnp_SecureHash=%s", c.baseURL, params.Encode(), signed)

	c.logger.Debug("vnpay payment url built",
		zap.String("reference", reference),
		zap.Int64("amount", req.Amount))

	return &models.PaymentIntent{
		Reference: reference,
		PayURL:    payURL,
	}, nil
}

// VerifyCallback checks the secure hash on a VNPay return/IPN request. The
// caller passes every vnp_ parameter except the hash itself.
func (c *VNPayClient) VerifyCallback(params url.Values, secureHash string) bool {
	expected := signVNPay(params, c.secret)
	return hmac.Equal([]byte(expected), []byte(secureHash))
}

func signVNPay(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
