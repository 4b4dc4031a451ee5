package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/internal/cart"
	"github.com/angelmondragon/folio-storefront/internal/orders"
	"github.com/angelmondragon/folio-storefront/pkg/checkout"
	"github.com/angelmondragon/folio-storefront/pkg/currency"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/metrics"
	"github.com/angelmondragon/folio-storefront/pkg/whatsapp"
)

const (
	MessageFailed       = "payment was not successful"
	MessageClosed       = "payment window was closed"
	MessageUnverified   = "payment could not be verified"
	MessageNotCompleted = "payment received but the order could not be completed"
	MessageUnavailable  = "payment service is unavailable"

	defaultWidgetTimeout    = 30 * time.Minute
	defaultConfirmationPath = "/order-confirmation"
)

var errAlreadySettled = errors.New("checkout attempt already settled")

type cartService interface {
	Read(ctx context.Context, sessionID string) (cart.Snapshot, error)
	Mutate(ctx context.Context, sessionID string, fn func(*cart.Store) error) (cart.Snapshot, error)
}

type orderRecorder interface {
	Record(ctx context.Context, input orders.PaidOrder) (*models.Order, error)
}

type currencyTable interface {
	Convert(amount decimal.Decimal, target enums.Currency) (decimal.Decimal, error)
	Format(amount decimal.Decimal, code enums.Currency) string
}

type handOffLinker interface {
	Link(order whatsapp.Order) (string, error)
}

// View is a checkout session plus its total in the selected currency.
type View struct {
	Session
	Total          decimal.Decimal `json:"total"`
	FormattedTotal string          `json:"formatted_total"`
}

// Service orchestrates one checkout attempt per browsing session.
type Service interface {
	Get(ctx context.Context, sessionID string) (View, error)
	SelectCurrency(ctx context.Context, sessionID, code string) (View, error)
	Submit(ctx context.Context, sessionID, email string) (View, error)
	// Settle waits for the widget outcome of reference and applies it. The
	// browser-facing calls only accept references issued to sessionID.
	Settle(ctx context.Context, sessionID, reference string) (View, error)
	// Resolve delivers an outcome for reference and settles it.
	Resolve(ctx context.Context, sessionID, reference string, outcome Outcome) (View, error)
	Close(ctx context.Context, sessionID, reference string) (View, error)
	// Confirm applies a provider notification the caller has authenticated.
	// A confirmed success is recorded even when its attempt was closed, failed
	// or replaced in the meantime.
	Confirm(ctx context.Context, reference string, outcome Outcome) (View, error)
}

type ServiceParams struct {
	Sessions         SessionStore
	Cart             cartService
	Orders           orderRecorder
	Currency         currencyTable
	Provider         Provider
	HandOff          handOffLinker
	Metrics          *metrics.CheckoutMetrics
	Logger           *logger.Logger
	DefaultCurrency  enums.Currency
	WidgetTimeout    time.Duration
	ConfirmationPath string
	References       checkout.ReferenceGenerator
	Now              func() time.Time
}

type service struct {
	sessions         SessionStore
	cart             cartService
	orders           orderRecorder
	currency         currencyTable
	provider         Provider
	handOff          handOffLinker
	metrics          *metrics.CheckoutMetrics
	logg             *logger.Logger
	defaultCurrency  enums.Currency
	widgetTimeout    time.Duration
	confirmationPath string
	references       checkout.ReferenceGenerator
	now              func() time.Time

	mu      sync.Mutex
	pending map[string]Widget
}

func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("checkout session store required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order recorder required")
	}
	if params.Currency == nil {
		return nil, fmt.Errorf("currency table required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &service{
		sessions:         params.Sessions,
		cart:             params.Cart,
		orders:           params.Orders,
		currency:         params.Currency,
		provider:         params.Provider,
		handOff:          params.HandOff,
		metrics:          params.Metrics,
		logg:             params.Logger,
		defaultCurrency:  params.DefaultCurrency,
		widgetTimeout:    params.WidgetTimeout,
		confirmationPath: strings.TrimSpace(params.ConfirmationPath),
		references:       params.References,
		now:              params.Now,
		pending:          map[string]Widget{},
	}
	if !svc.defaultCurrency.IsValid() {
		svc.defaultCurrency = enums.BaseCurrency
	}
	if svc.widgetTimeout <= 0 {
		svc.widgetTimeout = defaultWidgetTimeout
	}
	if svc.confirmationPath == "" {
		svc.confirmationPath = defaultConfirmationPath
	}
	if svc.references == nil {
		svc.references = checkout.RandomReference
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (View, error) {
	if err := validateSession(sessionID); err != nil {
		return View{}, err
	}
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout unavailable")
	}
	return s.cartView(ctx, s.normalize(session))
}

// SelectCurrency switches the display and payment currency. An invalid code is
// rejected and the previous selection stays.
func (s *service) SelectCurrency(ctx context.Context, sessionID, code string) (View, error) {
	if err := validateSession(sessionID); err != nil {
		return View{}, err
	}
	code = strings.TrimSpace(code)
	if !currency.IsValidCode(code) {
		s.logg.Warn(s.logg.WithField(ctx, "currency", code), "rejected invalid currency selection")
		return View{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported currency %q", code)
	}
	session, err := s.sessions.Update(ctx, sessionID, func(sess *Session) error {
		*sess = s.normalize(*sess)
		sess.Currency = enums.Currency(code)
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout unavailable")
	}
	return s.cartView(ctx, session)
}

func (s *service) Submit(ctx context.Context, sessionID, email string) (View, error) {
	if err := validateSession(sessionID); err != nil {
		return View{}, err
	}
	ctx = s.logg.WithCartSession(ctx, sessionID)
	email = strings.TrimSpace(email)
	now := s.now().UTC()

	var stale string
	session, err := s.sessions.Update(ctx, sessionID, func(sess *Session) error {
		*sess = s.normalize(*sess)
		if sess.Status == enums.CheckoutStatusProcessing {
			if now.Sub(sess.StartedAt) < s.widgetTimeout {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "a payment is already in progress")
			}
			stale = sess.Reference
		}
		sess.resetAttempt()
		sess.UpdatedAt = now
		return nil
	})
	if err != nil {
		return View{}, wrapStoreErr(err)
	}
	if stale != "" {
		s.forget(stale)
	}

	if err := s.provider.EnsureScript(ctx); err != nil {
		s.logg.Error(ctx, "payment script unavailable", err)
		s.markFailed(ctx, sessionID, MessageUnavailable)
		s.metrics.ObserveOutcome(string(enums.CheckoutStatusFailed), time.Time{})
		return View{}, err
	}

	snap, err := s.cart.Read(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := checkout.ValidateAttempt(checkout.AttemptInput{
		Email:     email,
		PublicKey: s.provider.PublicKey(),
		Total:     snap.Total,
		Lines:     len(snap.Items),
	}); err != nil {
		return View{}, err
	}

	converted, err := s.currency.Convert(snap.Total, session.Currency)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "convert total")
	}
	req := WidgetRequest{
		Key:         s.provider.PublicKey(),
		Email:       email,
		AmountMinor: checkout.MinorUnits(converted),
		Currency:    session.Currency,
		Reference:   s.references(),
	}
	ctx = s.logg.WithReference(ctx, req.Reference)

	widget, err := s.provider.Open(ctx, req)
	if err != nil {
		s.logg.Error(ctx, "open payment widget", err)
		s.markFailed(ctx, sessionID, MessageUnavailable)
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment widget unavailable")
	}
	config := widget.Config()
	attempt := Session{
		ID:             sessionID,
		Currency:       req.Currency,
		Status:         enums.CheckoutStatusProcessing,
		Email:          email,
		Reference:      req.Reference,
		Widget:         &config,
		Items:          snap.Items,
		BaseTotal:      snap.Total,
		ConvertedTotal: converted,
		AmountMinor:    req.AmountMinor,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sessions.SaveAttempt(ctx, attempt); err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout unavailable")
	}
	s.remember(req.Reference, widget)

	session, err = s.sessions.Update(ctx, sessionID, func(sess *Session) error {
		if sess.Status != enums.CheckoutStatusIdle {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "a payment is already in progress")
		}
		*sess = cloneSession(attempt)
		return nil
	})
	if err != nil {
		s.forget(req.Reference)
		return View{}, wrapStoreErr(err)
	}

	s.metrics.IncAttempt(string(req.Currency))
	s.logg.Info(ctx, "payment widget opened")
	return s.attemptView(session), nil
}

func (s *service) Settle(ctx context.Context, sessionID, reference string) (View, error) {
	attempt, err := s.owned(ctx, sessionID, reference)
	if err != nil {
		return View{}, err
	}
	widget, ok := s.lookup(attempt.Reference)
	if !ok {
		return s.currentView(ctx, attempt.ID)
	}
	select {
	case outcome := <-widget.Outcome():
		return s.apply(ctx, attempt, outcome)
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Resolve accepts outcomes from the browser callback and the close hook.
func (s *service) Resolve(ctx context.Context, sessionID, reference string, outcome Outcome) (View, error) {
	attempt, err := s.owned(ctx, sessionID, reference)
	if err != nil {
		return View{}, err
	}
	outcome.Confirmed = false
	return s.resolve(ctx, attempt, outcome)
}

func (s *service) Close(ctx context.Context, sessionID, reference string) (View, error) {
	return s.Resolve(ctx, sessionID, reference, Outcome{Reference: reference, Closed: true})
}

func (s *service) Confirm(ctx context.Context, reference string, outcome Outcome) (View, error) {
	attempt, err := s.attempt(ctx, reference)
	if err != nil {
		return View{}, err
	}
	outcome.Confirmed = true
	return s.resolve(ctx, attempt, outcome)
}

// resolve hands outcome to a waiting Settle when there is one. Only the first
// outcome delivered to a widget settles the attempt; a later confirmed success
// is still applied so it can be recovered.
func (s *service) resolve(ctx context.Context, attempt Session, outcome Outcome) (View, error) {
	widget, ok := s.lookup(attempt.Reference)
	if !ok {
		return s.apply(ctx, attempt, outcome)
	}
	accepted := widget.Deliver(outcome)
	select {
	case first := <-widget.Outcome():
		view, err := s.apply(ctx, attempt, first)
		if accepted || err != nil {
			return view, err
		}
	default:
		// a concurrent Settle took the pending outcome
	}
	return s.apply(ctx, attempt, outcome)
}

func (s *service) attempt(ctx context.Context, reference string) (Session, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	attempt, err := s.sessions.Attempt(ctx, reference)
	if errors.Is(err, ErrUnknownReference) {
		return Session{}, pkgerrors.New(pkgerrors.CodeNotFound, "payment reference not found")
	}
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout unavailable")
	}
	return attempt, nil
}

// owned loads the attempt behind reference if it was issued to sessionID.
// Foreign references look the same as unknown ones.
func (s *service) owned(ctx context.Context, sessionID, reference string) (Session, error) {
	if err := validateSession(sessionID); err != nil {
		return Session{}, err
	}
	attempt, err := s.attempt(ctx, reference)
	if err != nil {
		return Session{}, err
	}
	if attempt.ID != sessionID {
		return Session{}, pkgerrors.New(pkgerrors.CodeNotFound, "payment reference not found")
	}
	return attempt, nil
}

func (s *service) apply(ctx context.Context, attempt Session, outcome Outcome) (View, error) {
	reference, sessionID := attempt.Reference, attempt.ID
	ctx = s.logg.WithReference(ctx, reference)
	current, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout unavailable")
	}
	current = s.normalize(current)
	if current.Reference != reference || current.Status != enums.CheckoutStatusProcessing {
		s.forget(reference)
		if outcome.Confirmed && outcome.Succeeded() && orphaned(current, reference) {
			return s.recoverPayment(ctx, attempt, current)
		}
		return s.attemptView(current), nil
	}

	status := enums.CheckoutStatusFailed
	message := MessageFailed
	var handOff, redirect string
	switch {
	case outcome.Closed:
		status, message = enums.CheckoutStatusCancelled, MessageClosed
	case !outcome.Succeeded():
		s.logg.Warn(s.logg.WithField(ctx, "provider_status", outcome.Status), "payment reported unsuccessful")
	default:
		verified, err := s.provider.Verify(ctx, current.request())
		if err != nil {
			s.logg.Error(ctx, "payment verification failed", err)
			// the outcome is spent; the next callback or webhook applies directly
			s.forget(reference)
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment verification unavailable")
		}
		if !verified {
			message = MessageUnverified
			s.logg.Warn(ctx, "payment success did not verify")
			break
		}
		handOff, redirect, err = s.complete(ctx, current)
		if err != nil {
			s.logg.Error(ctx, "complete paid checkout", err)
			message = MessageNotCompleted
			break
		}
		status, message = enums.CheckoutStatusSuccess, ""
	}

	now := s.now().UTC()
	settled, err := s.sessions.Update(ctx, sessionID, func(sess *Session) error {
		if sess.Reference != reference || sess.Status != enums.CheckoutStatusProcessing {
			return errAlreadySettled
		}
		sess.Status = status
		sess.Message = message
		sess.HandOffURL = handOff
		sess.RedirectURL = redirect
		sess.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errAlreadySettled) {
		latest, loadErr := s.sessions.Load(ctx, sessionID)
		if loadErr != nil {
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, loadErr, "checkout unavailable")
		}
		latest = s.normalize(latest)
		// the order is already recorded; do not leave a paid attempt cancelled
		if status == enums.CheckoutStatusSuccess && orphaned(latest, reference) {
			return s.recoverPayment(ctx, attempt, latest)
		}
		return s.attemptView(latest), nil
	}
	if err != nil {
		return View{}, wrapStoreErr(err)
	}
	s.forget(reference)
	s.metrics.ObserveOutcome(string(status), current.StartedAt)
	s.logg.Info(s.logg.WithField(ctx, "status", status), "checkout attempt settled")
	return s.attemptView(settled), nil
}

// recoverPayment records a provider-confirmed payment whose attempt is no
// longer in flight. A closed or failed attempt that is still the session's
// latest completes as usual. A payment for a replaced attempt is recorded for
// review and leaves the session alone.
func (s *service) recoverPayment(ctx context.Context, attempt, current Session) (View, error) {
	verified, err := s.provider.Verify(ctx, attempt.request())
	if err != nil {
		s.logg.Error(ctx, "late payment verification failed", err)
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment verification unavailable")
	}
	if !verified {
		s.logg.Warn(ctx, "late payment success did not verify")
		return s.attemptView(current), nil
	}

	replaced := current.Reference != attempt.Reference
	if _, err := s.orders.Record(ctx, s.paidOrder(attempt, replaced)); err != nil {
		s.logg.Error(ctx, "record late payment", err)
		return View{}, wrapStoreErr(err)
	}
	if replaced {
		s.logg.Warn(s.logg.WithField(ctx, "current_reference", current.Reference), "payment for a replaced attempt recorded for review")
		return s.attemptView(current), nil
	}

	handOff, redirect, err := s.finish(ctx, attempt)
	if err != nil {
		s.logg.Error(ctx, "complete late payment", err)
		return View{}, wrapStoreErr(err)
	}
	now := s.now().UTC()
	settled, err := s.sessions.Update(ctx, attempt.ID, func(sess *Session) error {
		if sess.Reference != attempt.Reference || !orphaned(*sess, attempt.Reference) {
			return errAlreadySettled
		}
		sess.Status = enums.CheckoutStatusSuccess
		sess.Message = ""
		sess.HandOffURL = handOff
		sess.RedirectURL = redirect
		sess.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errAlreadySettled) {
		return s.currentView(ctx, attempt.ID)
	}
	if err != nil {
		return View{}, wrapStoreErr(err)
	}
	s.metrics.ObserveOutcome(string(enums.CheckoutStatusSuccess), attempt.StartedAt)
	s.logg.Info(ctx, "late payment settled the attempt")
	return s.attemptView(settled), nil
}

// orphaned reports whether a paid reference has nothing left to settle it:
// the session moved on to another attempt, or this one ended unpaid.
func orphaned(current Session, reference string) bool {
	if current.Reference != reference {
		return true
	}
	return current.Status == enums.CheckoutStatusCancelled || current.Status == enums.CheckoutStatusFailed
}

func (s *service) paidOrder(attempt Session, review bool) orders.PaidOrder {
	return orders.PaidOrder{
		Reference:      attempt.Reference,
		Email:          attempt.Email,
		Currency:       attempt.Currency,
		BaseTotal:      attempt.BaseTotal,
		ConvertedTotal: attempt.ConvertedTotal,
		AmountMinor:    attempt.AmountMinor,
		Items:          orderItems(attempt.Items),
		PaidAt:         s.now().UTC(),
		NeedsReview:    review,
	}
}

// complete runs the success side effects in order: record the order, clear the
// cart, close the overlay, build the hand-off link and the confirmation URL.
// Only the hand-off may fail without failing the attempt.
func (s *service) complete(ctx context.Context, session Session) (string, string, error) {
	if _, err := s.orders.Record(ctx, s.paidOrder(session, false)); err != nil {
		return "", "", err
	}
	return s.finish(ctx, session)
}

func (s *service) finish(ctx context.Context, session Session) (string, string, error) {
	if _, err := s.cart.Mutate(ctx, session.ID, func(store *cart.Store) error {
		store.Clear()
		store.SetOpen(false)
		return nil
	}); err != nil {
		return "", "", err
	}

	handOff := ""
	if s.handOff != nil {
		link, err := s.handOff.Link(handOffOrder(session, s.currency.Format(session.ConvertedTotal, session.Currency)))
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "hand-off link unavailable")
		} else {
			handOff = link
		}
	}
	return handOff, s.confirmationURL(session.Reference), nil
}

func (s *service) confirmationURL(reference string) string {
	return s.confirmationPath + "?ref=" + url.QueryEscape(reference)
}

func (s *service) markFailed(ctx context.Context, sessionID, message string) {
	_, err := s.sessions.Update(ctx, sessionID, func(sess *Session) error {
		sess.Status = enums.CheckoutStatusFailed
		sess.Message = message
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "persist failed checkout", err)
	}
}

func (s *service) currentView(ctx context.Context, sessionID string) (View, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout unavailable")
	}
	return s.attemptView(s.normalize(session)), nil
}

func (s *service) normalize(session Session) Session {
	if !session.Currency.IsValid() {
		session.Currency = s.defaultCurrency
	}
	if !session.Status.IsValid() {
		session.Status = enums.CheckoutStatusIdle
	}
	return session
}

// cartView prices the live cart in the session currency.
func (s *service) cartView(ctx context.Context, session Session) (View, error) {
	snap, err := s.cart.Read(ctx, session.ID)
	if err != nil {
		return View{}, err
	}
	converted, err := s.currency.Convert(snap.Total, session.Currency)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "convert total")
	}
	return View{Session: session, Total: converted, FormattedTotal: s.currency.Format(converted, session.Currency)}, nil
}

// attemptView prices the attempt's own snapshot.
func (s *service) attemptView(session Session) View {
	return View{
		Session:        session,
		Total:          session.ConvertedTotal,
		FormattedTotal: s.currency.Format(session.ConvertedTotal, session.Currency),
	}
}

func (s *service) remember(reference string, widget Widget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[reference] = widget
}

func (s *service) lookup(reference string) (Widget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	widget, ok := s.pending[reference]
	return widget, ok
}

func (s *service) forget(reference string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, reference)
}

func orderItems(items []cart.LineItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		out = append(out, models.OrderItem{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return out
}

func handOffOrder(session Session, total string) whatsapp.Order {
	lines := make([]whatsapp.Line, 0, len(session.Items))
	for _, item := range session.Items {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, whatsapp.Line{Name: item.Name, Quantity: item.Quantity})
	}
	return whatsapp.Order{
		Reference: session.Reference,
		Email:     session.Email,
		Total:     total,
		Lines:     lines,
	}
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return nil
}

func wrapStoreErr(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout unavailable")
}
