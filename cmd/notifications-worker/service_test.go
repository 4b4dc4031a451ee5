package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type blockingConsumer struct {
	name string
	err  error
	ran  chan struct{}
}

func (b *blockingConsumer) Name() string { return b.name }

func (b *blockingConsumer) Run(ctx context.Context) error {
	close(b.ran)
	if b.err != nil {
		return b.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func TestRunStopsAllConsumersWhenOneFails(t *testing.T) {
	healthy := &blockingConsumer{name: "orders", ran: make(chan struct{})}
	broken := &blockingConsumer{name: "contact", err: errors.New("subscription gone"), ran: make(chan struct{})}
	svc, err := NewService(ServiceParams{
		Logger:    testLogger(),
		Consumers: []consumer{healthy, broken},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contact: subscription gone")
	<-healthy.ran
}

func TestRunReturnsCanceledOnShutdown(t *testing.T) {
	c := &blockingConsumer{name: "orders", ran: make(chan struct{})}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Consumers: []consumer{c}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c.ran
		cancel()
	}()
	assert.ErrorIs(t, svc.Run(ctx), context.Canceled)
}

func TestRunRefusesWhenDependencyDown(t *testing.T) {
	c := &blockingConsumer{name: "orders", ran: make(chan struct{})}
	svc, err := NewService(ServiceParams{
		Logger:    testLogger(),
		Pingers:   map[string]pinger{"redis": pingFunc(func(context.Context) error { return errors.New("refused") })},
		Consumers: []consumer{c},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	assert.EqualError(t, err, "redis ping failed: refused")
}

func TestNewServiceNeedsConsumers(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: testLogger()})
	assert.Error(t, err)
}
