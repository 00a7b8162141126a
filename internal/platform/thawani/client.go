package thawani

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

var (
	// ErrMissingSecretKey / ErrMissingPublishableKey are configuration
	// errors; they surface at construction so a misconfigured process
	// fails at startup instead of on the first payment.
	ErrMissingSecretKey      = errors.New("thawani secret key is not configured")
	ErrMissingPublishableKey = errors.New("thawani publishable key is not configured")
)

// Client wraps the gateway's checkout HTTP API. It holds no business
// logic; it translates parameter shapes, enforces a bounded timeout,
// and never retries internally. Retry policy belongs to the caller.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	checkoutBaseURL string
	secretKey       string
	publishableKey  string
	log             *zap.SugaredLogger
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) (*Client, error) {
	if cfg.Thawani.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if cfg.Thawani.PublishableKey == "" {
		return nil, ErrMissingPublishableKey
	}
	return &Client{
		httpClient:      &http.Client{Timeout: requestTimeout},
		baseURL:         cfg.Thawani.BaseURL,
		checkoutBaseURL: cfg.Thawani.CheckoutBaseURL,
		secretKey:       cfg.Thawani.SecretKey,
		publishableKey:  cfg.Thawani.PublishableKey,
		log:             log,
	}, nil
}

// Product is a checkout line item. UnitAmount is in minor units
// (1/1000 of the major currency unit).
type Product struct {
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

type CreateSessionParams struct {
	// ClientReferenceID is the caller-supplied correlation id (the
	// donation reference), echoed back by the gateway.
	ClientReferenceID string
	Products          []Product
	SuccessURL        string
	CancelURL         string
}

type Session struct {
	SessionID  string
	PaymentURL string
	Raw        json.RawMessage
}

// SessionDetails is the gateway's session state flattened into a map.
// PaymentStatus is always populated; empty string means the gateway
// omitted it and callers should treat the result as undecidable.
type SessionDetails struct {
	SessionID     string
	PaymentStatus string
	TotalAmount   *int64
	Fields        map[string]any
	Raw           json.RawMessage
}

type sessionEnvelope struct {
	Success bool           `json:"success"`
	Code    int            `json:"code"`
	Data    map[string]any `json:"data"`
}

// CreateSession creates a gateway-hosted checkout session.
func (c *Client) CreateSession(ctx context.Context, params *CreateSessionParams) (*Session, error) {
	body := map[string]any{
		"client_reference_id": params.ClientReferenceID,
		"mode":                "payment",
		"products":            params.Products,
		"success_url":         params.SuccessURL,
		"cancel_url":          params.CancelURL,
	}

	raw, env, err := c.do(ctx, http.MethodPost, "/checkout/session", body)
	if err != nil {
		return nil, err
	}

	sessionID, _ := env.Data["session_id"].(string)
	if sessionID == "" {
		return nil, &GatewayError{Op: "create_session", StatusCode: http.StatusOK, Body: string(raw), Err: errors.New("response missing session_id")}
	}

	return &Session{
		SessionID:  sessionID,
		PaymentURL: c.paymentURL(sessionID),
		Raw:        raw,
	}, nil
}

// GetSessionDetails retrieves and normalizes the session state.
func (c *Client) GetSessionDetails(ctx context.Context, sessionID string) (*SessionDetails, error) {
	raw, env, err := c.do(ctx, http.MethodGet, "/checkout/session/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	details := &SessionDetails{
		SessionID: sessionID,
		Fields:    env.Data,
		Raw:       raw,
	}
	// A missing payment_status is not an error; the caller treats
	// unknown as a no-op rather than failing the whole batch.
	if s, ok := env.Data["payment_status"].(string); ok {
		details.PaymentStatus = s
	}
	if v, ok := env.Data["total_amount"].(float64); ok {
		amount := int64(v)
		details.TotalAmount = &amount
	}
	return details, nil
}

// Refund requests a refund for a settled charge.
func (c *Client) Refund(ctx context.Context, chargeID, reason string) (json.RawMessage, error) {
	body := map[string]any{
		"payment_id": chargeID,
	}
	if reason != "" {
		body["reason"] = reason
	}
	raw, _, err := c.do(ctx, http.MethodPost, "/refunds", body)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) paymentURL(sessionID string) string {
	return fmt.Sprintf("%s/pay/%s?key=%s", c.checkoutBaseURL, sessionID, url.QueryEscape(c.publishableKey))
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, *sessionEnvelope, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("thawani-api-key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env sessionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return raw, &env, nil
}
