package pix

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/pkg/config"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

// Charge statuses reported by the PSP.
const (
	ChargeStatusPending   = "pending"
	ChargeStatusPaid      = "paid"
	ChargeStatusExpired   = "expired"
	ChargeStatusCancelled = "cancelled"
)

var (
	errBaseURLRequired       = errors.New("pix base url is required")
	errAPIKeyRequired        = errors.New("pix api key is required")
	errWebhookSecretRequired = errors.New("pix webhook secret is required")
	errLoggerRequired        = errors.New("pix logger is required")
)

// Client exposes PIX charge primitives with centralized auth, logging, and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	webhookSecret string
	chargeExpiry  time.Duration
	logger        *logger.Logger
}

// ChargeParams describes a charge to create at the PSP.
type ChargeParams struct {
	Amount         decimal.Decimal
	Description    string
	ReferenceID    string
	CustomerName   string
	IdempotencyKey string
}

// Charge is the PSP view of a payment session.
type Charge struct {
	SessionID   string           `json:"session_id"`
	Status      string           `json:"status"`
	PaymentLink string           `json:"payment_link"`
	QRCode      string           `json:"qr_code"`
	Amount      decimal.Decimal  `json:"amount"`
	PaidAmount  *decimal.Decimal `json:"paid_amount,omitempty"`
	PaidAt      *time.Time       `json:"paid_at,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
}

// Paid reports whether the PSP confirmed the payment.
func (c *Charge) Paid() bool {
	return c != nil && c.Status == ChargeStatusPaid
}

// NewClient initializes the PIX wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PixConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		chargeExpiry:  cfg.ChargeExpiry,
		logger:        logg,
	}

	logg.Info(ctx, "pix client initialized")
	return c, nil
}

// SigningSecret returns the PSP webhook secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// NewIdempotencyKey returns a unique key for PSP operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "rz"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreateCharge registers a PIX charge and returns the payment session.
func (c *Client) CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}

	body := map[string]any{
		"amount":       params.Amount.StringFixed(2),
		"description":  params.Description,
		"reference_id": params.ReferenceID,
		"customer":     map[string]string{"name": params.CustomerName},
	}
	if c.chargeExpiry > 0 {
		body["expires_in_seconds"] = int(c.chargeExpiry.Seconds())
	}

	c.log(ctx, "request", "create_charge", map[string]any{
		"reference_id": params.ReferenceID,
		"amount":       params.Amount.StringFixed(2),
	})

	var charge Charge
	err := c.do(ctx, http.MethodPost, "/v1/charges", c.ensureIdempotencyKey("charge.create", params.IdempotencyKey), body, &charge)
	if err != nil {
		c.log(ctx, "error", "create_charge", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_charge", map[string]any{
		"session_id": charge.SessionID,
		"status":     charge.Status,
	})
	return &charge, nil
}

// GetCharge fetches the current state of a payment session from the PSP.
func (c *Client) GetCharge(ctx context.Context, sessionID string) (*Charge, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	c.log(ctx, "request", "get_charge", map[string]any{"session_id": sessionID})

	var charge Charge
	err := c.do(ctx, http.MethodGet, "/v1/charges/"+sessionID, "", nil, &charge)
	if err != nil {
		c.log(ctx, "error", "get_charge", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_charge", map[string]any{
		"session_id": charge.SessionID,
		"status":     charge.Status,
	})
	return &charge, nil
}

// VerifySignature checks the webhook HMAC header against the raw body.
func (c *Client) VerifySignature(body []byte, header string) bool {
	if c == nil || c.webhookSecret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if trimmed := strings.TrimSpace(provided); trimmed != "" {
		return trimmed
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding pix request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building pix request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pix request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading pix response")
	}

	if resp.StatusCode >= 400 {
		return c.mapStatusError(resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding pix response")
		}
	}
	return nil
}

func (c *Client) mapStatusError(status int, payload []byte) error {
	var psp struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &psp)
	msg := psp.Message
	if msg == "" {
		msg = fmt.Sprintf("pix upstream returned %d", status)
	}

	switch {
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	case status == http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeIdempotency, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msg)
	case status >= 400 && status < 500:
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("pix %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("pix %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"key", "secret", "token", "email", "phone", "document"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
