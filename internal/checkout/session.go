package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/internal/cart"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/angelmondragon/folio-storefront/pkg/redis"
)

// ErrUnknownReference is returned when a reference was never issued or has expired.
var ErrUnknownReference = errors.New("unknown payment reference")

// Session is the checkout state of one browsing session.
type Session struct {
	ID             string               `json:"id"`
	Currency       enums.Currency       `json:"currency"`
	Status         enums.CheckoutStatus `json:"status"`
	Message        string               `json:"message,omitempty"`
	Email          string               `json:"email,omitempty"`
	Reference      string               `json:"reference,omitempty"`
	Widget         *WidgetConfig        `json:"widget,omitempty"`
	Items          []cart.LineItem      `json:"items,omitempty"`
	BaseTotal      decimal.Decimal      `json:"base_total"`
	ConvertedTotal decimal.Decimal      `json:"converted_total"`
	AmountMinor    int64                `json:"amount_minor"`
	HandOffURL     string               `json:"hand_off_url,omitempty"`
	RedirectURL    string               `json:"redirect_url,omitempty"`
	StartedAt      time.Time            `json:"started_at,omitempty"`
	UpdatedAt      time.Time            `json:"updated_at,omitempty"`
}

// resetAttempt drops everything about the previous attempt but the currency.
func (s *Session) resetAttempt() {
	*s = Session{ID: s.ID, Currency: s.Currency, Status: enums.CheckoutStatusIdle, UpdatedAt: s.UpdatedAt}
}

func (s Session) request() WidgetRequest {
	req := WidgetRequest{
		Email:       s.Email,
		AmountMinor: s.AmountMinor,
		Currency:    s.Currency,
		Reference:   s.Reference,
	}
	if s.Widget != nil {
		req.Key = s.Widget.Key
	}
	return req
}

// SessionStore persists checkout sessions and, per reference, the attempt as it
// was opened. The attempt record lets any instance settle a payment and outlives
// the session moving on to a newer attempt.
type SessionStore interface {
	// Load returns a zero Session when none is stored.
	Load(ctx context.Context, sessionID string) (Session, error)
	// Update applies fn and saves atomically with respect to other updates of the same session.
	Update(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error)
	SaveAttempt(ctx context.Context, attempt Session) error
	// Attempt returns ErrUnknownReference for references never issued or expired.
	Attempt(ctx context.Context, reference string) (Session, error)
}

type redisClient interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current []byte) ([]byte, error)) error
	CheckoutKey(sessionID string) string
	CheckoutReferenceKey(reference string) string
}

// RedisSessions stores sessions as JSON next to the cart they belong to.
type RedisSessions struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisSessions(client redisClient, ttl time.Duration) (*RedisSessions, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("checkout session ttl must be positive")
	}
	return &RedisSessions{client: client, ttl: ttl}, nil
}

func (r *RedisSessions) Load(ctx context.Context, sessionID string) (Session, error) {
	raw, err := r.client.GetBytes(ctx, r.client.CheckoutKey(sessionID))
	if errors.Is(err, redis.ErrNotFound) {
		return Session{ID: sessionID}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("load checkout session: %w", err)
	}
	return decodeSession(sessionID, raw)
}

func (r *RedisSessions) Update(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	var result Session
	err := r.client.Update(ctx, r.client.CheckoutKey(sessionID), r.ttl, func(current []byte) ([]byte, error) {
		session, err := decodeSession(sessionID, current)
		if err != nil {
			return nil, err
		}
		if err := fn(&session); err != nil {
			return nil, err
		}
		result = session
		return json.Marshal(session)
	})
	if err != nil {
		return Session{}, err
	}
	return result, nil
}

func (r *RedisSessions) SaveAttempt(ctx context.Context, attempt Session) error {
	if attempt.Reference == "" || attempt.ID == "" {
		return errors.New("attempt needs a reference and a session")
	}
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	return r.client.Set(ctx, r.client.CheckoutReferenceKey(attempt.Reference), raw, r.ttl)
}

func (r *RedisSessions) Attempt(ctx context.Context, reference string) (Session, error) {
	raw, err := r.client.GetBytes(ctx, r.client.CheckoutReferenceKey(reference))
	if errors.Is(err, redis.ErrNotFound) {
		return Session{}, ErrUnknownReference
	}
	if err != nil {
		return Session{}, fmt.Errorf("resolve reference: %w", err)
	}
	var attempt Session
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return Session{}, fmt.Errorf("decode attempt: %w", err)
	}
	return attempt, nil
}

func decodeSession(sessionID string, raw []byte) (Session, error) {
	if len(raw) == 0 {
		return Session{ID: sessionID}, nil
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, fmt.Errorf("decode checkout session: %w", err)
	}
	session.ID = sessionID
	return session, nil
}

// MemorySessions is the single-process SessionStore for dev mode and tests.
type MemorySessions struct {
	mu         sync.Mutex
	sessions map[string]Session
	attempts map[string]Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: map[string]Session{}, attempts: map[string]Session{}}
}

func (m *MemorySessions) Load(_ context.Context, sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[sessionID]; ok {
		return cloneSession(session), nil
	}
	return Session{ID: sessionID}, nil
}

func (m *MemorySessions) Update(_ context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	working := Session{ID: sessionID}
	if existing, ok := m.sessions[sessionID]; ok {
		working = cloneSession(existing)
	}
	if err := fn(&working); err != nil {
		return Session{}, err
	}
	m.sessions[sessionID] = cloneSession(working)
	return working, nil
}

func (m *MemorySessions) SaveAttempt(_ context.Context, attempt Session) error {
	if attempt.Reference == "" || attempt.ID == "" {
		return errors.New("attempt needs a reference and a session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attempt.Reference] = cloneSession(attempt)
	return nil
}

func (m *MemorySessions) Attempt(_ context.Context, reference string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[reference]
	if !ok {
		return Session{}, ErrUnknownReference
	}
	return cloneSession(attempt), nil
}

func cloneSession(s Session) Session {
	if s.Items != nil {
		s.Items = append([]cart.LineItem(nil), s.Items...)
	}
	if s.Widget != nil {
		widget := *s.Widget
		s.Widget = &widget
	}
	return s
}
