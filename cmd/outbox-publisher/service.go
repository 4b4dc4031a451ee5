package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/metrics"
	"github.com/angelmondragon/folio-storefront/pkg/outbox/registry"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxErrorBackoff       = 10 * time.Second
	pollJitter            = 250 * time.Millisecond
)

var errUnroutable = errors.New("no publisher for topic")

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventRegistry interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
	Topics() []string
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	Stop()
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	PubSub        pubSubClient
	Repository    outboxRepository
	Registry      eventRegistry
	DLQRepository dlqRepository
	Metrics       *metrics.PublisherMetrics
	// Publishers replaces the topic handles otherwise opened from PubSub.
	Publishers map[string]publisher
	Now        func() time.Time
}

// Service relays committed outbox rows to the topic their event type routes to.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	pubsub       pubSubClient
	repo         outboxRepository
	registry     eventRegistry
	dlq          dlqRepository
	topics       map[string]publisher
	metrics      *metrics.PublisherMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	var errs error
	for _, dep := range []struct {
		name    string
		missing bool
	}{
		{"config", params.Config == nil},
		{"logger", params.Logger == nil},
		{"database client", params.DB == nil},
		{"pubsub client", params.PubSub == nil},
		{"outbox repository", params.Repository == nil},
		{"event registry", params.Registry == nil},
		{"dlq repository", params.DLQRepository == nil},
	} {
		if dep.missing {
			errs = multierr.Append(errs, fmt.Errorf("%s is required", dep.name))
		}
	}
	if errs != nil {
		return nil, errs
	}

	topics := params.Publishers
	if topics == nil {
		topics = make(map[string]publisher)
		for _, topic := range params.Registry.Topics() {
			handle := params.PubSub.Publisher(topic)
			if handle == nil {
				return nil, fmt.Errorf("%w %s", errUnroutable, topic)
			}
			topics[topic] = gcpPublisher{topic: handle}
		}
	}

	outboxCfg := params.Config.Outbox
	svc := &Service{
		logg:         params.Logger,
		db:           params.DB,
		pubsub:       params.PubSub,
		repo:         params.Repository,
		registry:     params.Registry,
		dlq:          params.DLQRepository,
		topics:       topics,
		metrics:      params.Metrics,
		batchSize:    outboxCfg.BatchSize,
		maxAttempts:  outboxCfg.MaxAttempts,
		pollInterval: time.Duration(outboxCfg.PollIntervalMS) * time.Millisecond,
		now:          params.Now,
	}
	if svc.batchSize <= 0 {
		svc.batchSize = defaultBatchSize
	}
	if svc.maxAttempts <= 0 {
		svc.maxAttempts = defaultMaxAttempts
	}
	if svc.pollInterval <= 0 {
		svc.pollInterval = defaultPollInterval
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Run polls until ctx ends. Empty polls wait a jittered interval; failing
// batches back off exponentially up to maxErrorBackoff.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	defer s.stopPublishers()

	idle := retry.WithJitter(pollJitter, retry.NewConstant(s.pollInterval))
	var failing retry.Backoff
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		processed, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			if failing == nil {
				failing = s.errorBackoff()
			}
			wait, _ = failing.Next()
		case processed:
			failing = nil
			continue
		default:
			failing = nil
			wait, _ = idle.Next()
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (s *Service) errorBackoff() retry.Backoff {
	backoff := retry.NewExponential(s.pollInterval)
	backoff = retry.WithCappedDuration(maxErrorBackoff, backoff)
	return retry.WithJitter(pollJitter, backoff)
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range []struct {
		name string
		ping func(context.Context) error
	}{
		{"database", s.db.Ping},
		{"pubsub", s.pubsub.Ping},
	} {
		if err := dep.ping(ctx); err != nil {
			s.logg.Error(ctx, dep.name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	return nil
}

// stopPublishers flushes buffered messages before exit.
func (s *Service) stopPublishers() {
	for _, pub := range s.topics {
		pub.Stop()
	}
}

// processBatch relays one locked batch; every row is marked inside the same
// transaction that fetched it.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		processed = len(events) > 0
		for _, event := range events {
			if err := s.record(ctx, tx, s.deliver(ctx, event)); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

// delivery is the result of one relay try for an outbox row.
type delivery struct {
	event     models.OutboxEvent
	resolved  *registry.ResolvedEvent
	published bool
	tried     bool
	err       error
}

type verdict string

const (
	verdictPublished  verdict = "published"
	verdictRetry      verdict = "retry"
	verdictDeadLetter verdict = "dead_letter"
)

func (s *Service) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	d := delivery{event: event}
	d.resolved, d.err = s.registry.Resolve(event)
	if d.err != nil {
		return d
	}
	topic := d.resolved.Descriptor.Topic
	pub, ok := s.topics[topic]
	if !ok {
		d.err = fmt.Errorf("%w %s", errUnroutable, topic)
		return d
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	d.tried = true
	_, d.err = pub.Publish(publishCtx, d.resolved.Message(event)).Get(publishCtx)
	d.published = d.err == nil
	return d
}

// verdict decides the row's fate. Rows that cannot decode or route are dead
// lettered at once; publish errors retry until maxAttempts.
func (d delivery) verdict(maxAttempts int) (verdict, enums.OutboxDLQErrorReason) {
	var nonRetry registry.NonRetryableError
	switch {
	case d.published:
		return verdictPublished, ""
	case errors.Is(d.err, errUnroutable):
		return verdictDeadLetter, enums.OutboxDLQReasonUnroutable
	case errors.As(d.err, &nonRetry):
		return verdictDeadLetter, enums.OutboxDLQReasonNonRetryable
	case d.attempts() >= maxAttempts:
		return verdictDeadLetter, enums.OutboxDLQReasonMaxAttempts
	default:
		return verdictRetry, ""
	}
}

func (d delivery) attempts() int {
	if d.tried {
		return d.event.AttemptCount + 1
	}
	return d.event.AttemptCount
}

func (d delivery) fields() map[string]any {
	fields := map[string]any{
		"outbox_id":      d.event.ID.String(),
		"event_type":     d.event.EventType,
		"aggregate_type": d.event.AggregateType,
		"aggregate_id":   d.event.AggregateID.String(),
		"attempt_count":  d.attempts(),
	}
	if d.resolved != nil {
		fields["topic"] = d.resolved.Descriptor.Topic
		fields["event_id"] = d.resolved.Envelope.EventID
	}
	return fields
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, d delivery) error {
	ctx = s.logg.WithFields(ctx, d.fields())
	id, eventType := d.event.ID, string(d.event.EventType)

	outcome, reason := d.verdict(s.maxAttempts)
	switch outcome {
	case verdictPublished:
		if err := s.repo.MarkPublishedTx(tx, id); err != nil {
			return fmt.Errorf("mark published %s: %w", id, err)
		}
		s.metrics.IncPublished(eventType)
		s.logg.Info(ctx, "outbox event published")
	case verdictRetry:
		if err := s.repo.MarkFailedTx(tx, id, d.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", id, err)
		}
		s.metrics.IncFailed(eventType)
		s.logg.Warn(s.logg.WithField(ctx, "error", d.err.Error()), "outbox publish failed")
	case verdictDeadLetter:
		return s.deadLetter(ctx, tx, d, reason)
	}
	return nil
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, d delivery, reason enums.OutboxDLQErrorReason) error {
	cause := d.err
	if reason == enums.OutboxDLQReasonMaxAttempts {
		cause = fmt.Errorf("max publish attempts reached: %w", cause)
	}
	message := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       d.event.ID,
		EventType:     d.event.EventType,
		AggregateType: d.event.AggregateType,
		AggregateID:   d.event.AggregateID,
		Payload:       d.event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &message,
		AttemptCount:  d.attempts(),
		FailedAt:      s.now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", d.event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, d.event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", d.event.ID, err)
	}
	s.metrics.IncDeadLettered(string(reason))
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"error":        message,
		"error_reason": reason,
	}), "outbox event dead-lettered")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// gcpPublisher adapts a Pub/Sub topic handle.
type gcpPublisher struct {
	topic *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.topic.Publish(ctx, msg)
}

func (p gcpPublisher) Stop() {
	p.topic.Stop()
}
