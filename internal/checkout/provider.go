package checkout

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/angelmondragon/folio-storefront/pkg/paystack"
)

// WidgetRequest is everything the payment widget is opened with.
type WidgetRequest struct {
	Key         string
	Email       string
	AmountMinor int64
	Currency    enums.Currency
	Reference   string
}

// WidgetConfig is handed to the browser, which passes it to PaystackPop.setup.
type WidgetConfig struct {
	Key      string         `json:"key"`
	Email    string         `json:"email"`
	Amount   int64          `json:"amount"`
	Currency enums.Currency `json:"currency"`
	Ref      string         `json:"ref"`
}

// Outcome is what the widget reports back: a callback response or a close.
type Outcome struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Closed    bool   `json:"-"`
	// Confirmed marks an outcome the provider itself reported, such as a
	// signed webhook.
	Confirmed bool `json:"-"`
}

func (o Outcome) Succeeded() bool {
	return !o.Closed && o.Status == paystack.TransactionStatusOK
}

// Widget is one opened payment attempt. Outcome yields at most one value.
type Widget interface {
	Config() WidgetConfig
	Outcome() <-chan Outcome
	// Deliver hands the outcome to the widget; false means one was already accepted.
	Deliver(Outcome) bool
}

// Provider opens payment widgets and confirms what they report.
type Provider interface {
	EnsureScript(ctx context.Context) error
	PublicKey() string
	Open(ctx context.Context, req WidgetRequest) (Widget, error)
	// Verify confirms a reported success with the provider. Providers that
	// cannot verify return true.
	Verify(ctx context.Context, req WidgetRequest) (bool, error)
}

type inlineWidget struct {
	config  WidgetConfig
	outcome chan Outcome
	once    sync.Once
}

func newInlineWidget(req WidgetRequest) *inlineWidget {
	return &inlineWidget{
		config: WidgetConfig{
			Key:      req.Key,
			Email:    req.Email,
			Amount:   req.AmountMinor,
			Currency: req.Currency,
			Ref:      req.Reference,
		},
		outcome: make(chan Outcome, 1),
	}
}

func (w *inlineWidget) Config() WidgetConfig {
	return w.config
}

func (w *inlineWidget) Outcome() <-chan Outcome {
	return w.outcome
}

func (w *inlineWidget) Deliver(o Outcome) bool {
	accepted := false
	w.once.Do(func() {
		w.outcome <- o
		accepted = true
	})
	return accepted
}

type paystackClient interface {
	EnsureScript(ctx context.Context) error
	PublicKey() string
	CanVerify() bool
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// PaystackProvider drives the Paystack inline widget.
type PaystackProvider struct {
	client paystackClient
	verify bool
}

// NewPaystackProvider builds the provider. With verify off, or without a
// secret key, client-reported success is trusted as-is.
func NewPaystackProvider(client paystackClient, verify bool) *PaystackProvider {
	return &PaystackProvider{client: client, verify: verify}
}

func (p *PaystackProvider) EnsureScript(ctx context.Context) error {
	return p.client.EnsureScript(ctx)
}

func (p *PaystackProvider) PublicKey() string {
	return p.client.PublicKey()
}

func (p *PaystackProvider) Open(_ context.Context, req WidgetRequest) (Widget, error) {
	return newInlineWidget(req), nil
}

func (p *PaystackProvider) Verify(ctx context.Context, req WidgetRequest) (bool, error) {
	if !p.verify || !p.client.CanVerify() {
		return true, nil
	}
	tx, err := p.client.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		return false, err
	}
	if !tx.Succeeded() || tx.Amount != req.AmountMinor {
		return false, nil
	}
	if tx.Currency != "" && !strings.EqualFold(tx.Currency, string(req.Currency)) {
		return false, nil
	}
	return true, nil
}
