package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type consumer interface {
	Name() string
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger    *logger.Logger
	Pingers   map[string]pinger
	Consumers []consumer
}

// Service runs every consumer until one fails or ctx ends.
type Service struct {
	logg      *logger.Logger
	pingers   map[string]pinger
	consumers []consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	return &Service{
		logg:      params.Logger,
		pingers:   params.Pingers,
		consumers: params.Consumers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "worker dependencies ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	group, groupCtx := errgroup.WithContext(ctx)
	for _, c := range s.consumers {
		group.Go(func() error {
			runCtx := s.logg.WithField(groupCtx, "consumer", c.Name())
			s.logg.Info(runCtx, "consumer started")
			if err := c.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
