package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/folio-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
)

const (
	defaultBaseURL         = "https://api.paystack.co"
	defaultScriptURL       = "https://js.paystack.co/v1/inline.js"
	responseBodyReadLimit  = 1024
	SignatureHeader        = "x-paystack-signature"
	EventChargeSuccess     = "charge.success"
	TransactionStatusOK    = "success"
	scriptProbeFlightGroup = "inline-script"
)

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client talks to the Paystack REST API and probes the inline widget script.
type Client struct {
	httpClient *http.Client
	baseURL    string
	scriptURL  string
	publicKey  string
	secretKey  string

	probe      singleflight.Group
	mu         sync.Mutex
	scriptSeen bool
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default traced HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a client from config. Keys may be empty: a missing public
// key surfaces at checkout time and a missing secret disables verification.
func NewClient(cfg config.PaystackConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   firstNonEmpty(cfg.BaseURL, defaultBaseURL),
		scriptURL: firstNonEmpty(cfg.ScriptURL, defaultScriptURL),
		publicKey: strings.TrimSpace(cfg.PublicKey),
		secretKey: strings.TrimSpace(cfg.SecretKey),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// PublicKey is the key handed to the browser widget.
func (c *Client) PublicKey() string {
	return c.publicKey
}

// CanVerify reports whether server-side verification is configured.
func (c *Client) CanVerify() bool {
	return c.secretKey != ""
}

// EnsureScript checks that the inline widget script is reachable. A success is
// cached for the life of the client; concurrent callers share one probe and a
// failure is retried on the next call.
func (c *Client) EnsureScript(ctx context.Context) error {
	c.mu.Lock()
	seen := c.scriptSeen
	c.mu.Unlock()
	if seen {
		return nil
	}

	_, err, _ := c.probe.Do(scriptProbeFlightGroup, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scriptURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("script probe status %d", resp.StatusCode)
		}
		c.mu.Lock()
		c.scriptSeen = true
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment script unavailable")
	}
	return nil
}

// Transaction is the subset of the verify response checkout relies on.
type Transaction struct {
	Reference string     `json:"reference"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	PaidAt    *time.Time `json:"paid_at"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Succeeded reports whether Paystack considers the charge complete.
func (t *Transaction) Succeeded() bool {
	return t != nil && t.Status == TransactionStatusOK
}

// VerifyTransaction fetches the authoritative status of a reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack client not configured")
	}
	if c.secretKey == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errSecretKeyRequired, "payment verification unavailable")
	}
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	endpoint := c.buildURL("transaction/verify/" + url.PathEscape(trimmed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build verify request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute verify request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		// unknown references come back as 400/404; treat them as unpaid
		return &Transaction{Reference: trimmed, Status: "not_found"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "verify request failed")
	}

	var apiResp struct {
		Status  bool        `json:"status"`
		Message string      `json:"message"`
		Data    Transaction `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode verify response")
	}
	if !apiResp.Status {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New(apiResp.Message), "verify request rejected")
	}
	return &apiResp.Data, nil
}

// VerifySignature checks a webhook body against its x-paystack-signature header.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c == nil || c.secretKey == "" || signature == "" {
		return false
	}
	return ValidSignature(c.secretKey, body, signature)
}

// ValidSignature compares hex(HMAC-SHA512(secret, body)) in constant time.
func ValidSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	if event.Event == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event is required")
	}
	return &event, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
