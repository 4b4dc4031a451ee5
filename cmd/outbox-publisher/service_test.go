package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/metrics"
	"github.com/angelmondragon/folio-storefront/pkg/outbox"
	"github.com/angelmondragon/folio-storefront/pkg/outbox/payloads"
	"github.com/angelmondragon/folio-storefront/pkg/outbox/registry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestProcessBatchRetriesThenPublishes(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newOrderPaidRow(t, 0), newOrderPaidRow(t, 0)}}
	orders := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	h := newTestService(t, repo, map[string]publisher{"orders-topic": orders, "contact-topic": &fakePublisher{}}, nil)

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	assert.Empty(t, h.dlq.entries)

	require.Len(t, orders.messages, 2)
	attrs := orders.messages[1].Attributes
	assert.Equal(t, "order_paid", attrs["event_type"])
	assert.Equal(t, repo.events[1].AggregateID.String(), attrs["aggregate_id"])
	assert.Equal(t, "ref_1", attrs["reference"])
	assert.Equal(t, "paid", attrs["order_status"])
	assert.True(t, bytes.Equal(repo.events[1].Payload, orders.messages[1].Data))
}

func TestProcessBatchRoutesContactToItsTopic(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newContactRow(t)}}
	orders, contact := &fakePublisher{}, &fakePublisher{}
	h := newTestService(t, repo, map[string]publisher{"orders-topic": orders, "contact-topic": contact}, nil)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders.messages)
	require.Len(t, contact.messages, 1)
	assert.Equal(t, "contact_message_received", contact.messages[0].Attributes["event_type"])
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.published)
}

func TestProcessBatchReportsIdle(t *testing.T) {
	h := newTestService(t, &fakeRepo{}, map[string]publisher{}, nil)
	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessBatchDeadLettersUndecodableRows(t *testing.T) {
	event := newOrderPaidRow(t, 0)
	event.Payload = json.RawMessage(`{"data":null}`)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	orders := &fakePublisher{}
	h := newTestService(t, repo, map[string]publisher{"orders-topic": orders}, nil)

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Empty(t, orders.messages)
	require.Len(t, h.dlq.entries, 1)
	entry := h.dlq.entries[0]
	assert.Equal(t, event.ID, entry.EventID)
	assert.True(t, bytes.Equal(entry.Payload, event.Payload))
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	assert.Zero(t, entry.AttemptCount)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
}

func TestProcessBatchDeadLettersOnMaxAttempts(t *testing.T) {
	event := newOrderPaidRow(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	orders := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	h := newTestService(t, repo, map[string]publisher{"orders-topic": orders}, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, repo.failed)
	require.Len(t, h.dlq.entries, 1)
	entry := h.dlq.entries[0]
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, entry.ErrorReason)
	assert.Equal(t, 2, entry.AttemptCount)
	assert.Equal(t, fixedNow, entry.FailedAt)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "max publish attempts reached: transient")
}

func TestProcessBatchDeadLettersUnroutableRows(t *testing.T) {
	event := newContactRow(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	h := newTestService(t, repo, map[string]publisher{"orders-topic": &fakePublisher{}}, nil)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonUnroutable, h.dlq.entries[0].ErrorReason)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
}

func TestProcessBatchAbortsWhenMarkingFails(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newOrderPaidRow(t, 0)}, markErr: errors.New("db down")}
	h := newTestService(t, repo, map[string]publisher{"orders-topic": &fakePublisher{}}, nil)

	_, err := h.svc.processBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark published")
}

func TestNewServiceReportsEveryMissingDependency(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 7)
	assert.Contains(t, err.Error(), "event registry is required")
}

func TestNewServiceOpensPublisherPerTopic(t *testing.T) {
	reg, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic"})
	require.NoError(t, err)
	_, err = NewService(ServiceParams{
		Config:        &config.Config{},
		Logger:        logger.Nop(),
		DB:            &fakeDB{},
		PubSub:        &fakePubSubClient{},
		Repository:    &fakeRepo{},
		Registry:      reg,
		DLQRepository: &fakeDLQRepo{},
	})
	assert.ErrorIs(t, err, errUnroutable)
}

func TestRunStopsPublishersOnShutdown(t *testing.T) {
	orders := &fakePublisher{}
	h := newTestService(t, &fakeRepo{}, map[string]publisher{"orders-topic": orders}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, orders.stopped)
}

func TestRunFailsWhenDependencyIsDown(t *testing.T) {
	h := newTestService(t, &fakeRepo{}, map[string]publisher{}, nil)
	h.svc.db = &fakeDB{pingErr: errors.New("refused")}

	err := h.svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database ping failed")
}

func TestErrorBackoffGrowsAndCaps(t *testing.T) {
	h := newTestService(t, &fakeRepo{}, map[string]publisher{}, &config.OutboxConfig{PollIntervalMS: 1000})
	backoff := h.svc.errorBackoff()

	first, _ := backoff.Next()
	assert.GreaterOrEqual(t, first, time.Second-pollJitter)
	assert.LessOrEqual(t, first, time.Second+pollJitter)

	var last time.Duration
	for i := 0; i < 10; i++ {
		last, _ = backoff.Next()
	}
	assert.GreaterOrEqual(t, last, maxErrorBackoff-pollJitter)
	assert.LessOrEqual(t, last, maxErrorBackoff+pollJitter)
}

type testHarness struct {
	svc *Service
	dlq *fakeDLQRepo
}

func newTestService(t *testing.T, repo outboxRepository, publishers map[string]publisher, outboxCfgOverride *config.OutboxConfig) testHarness {
	t.Helper()
	outboxCfg := config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	reg, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic", ContactTopic: "contact-topic"})
	require.NoError(t, err)
	dlq := &fakeDLQRepo{}
	svc, err := NewService(ServiceParams{
		Config:        &config.Config{Outbox: outboxCfg},
		Logger:        logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:            &fakeDB{},
		PubSub:        &fakePubSubClient{},
		Repository:    repo,
		Registry:      reg,
		DLQRepository: dlq,
		Metrics:       metrics.NewPublisherMetrics(prometheus.NewRegistry()),
		Publishers:    publishers,
		Now:           func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return testHarness{svc: svc, dlq: dlq}
}

func newOrderPaidRow(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	return newRow(t, enums.EventOrderPaid, enums.AggregateOrder, payloads.OrderPaidEvent{Reference: "ref_1"}, attempts)
}

func newContactRow(t *testing.T) models.OutboxEvent {
	t.Helper()
	return newRow(t, enums.EventContactMessageReceived, enums.AggregateContactMessage, payloads.ContactMessageReceivedEvent{
		MessageID: uuid.New(),
		Name:      "Ada",
		Email:     "ada@example.com",
	}, 0)
}

func newRow(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, data any, attempts int) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: fixedNow,
		Data:       raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	markErr   error
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error { return nil }

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
	stopped  bool
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return fakePublishResult{}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

func (f *fakePublisher) Stop() { f.stopped = true }

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", f.err
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
