package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"prepgate/internal/platform/config"
	"prepgate/internal/ratelimit/metrics"
	"prepgate/internal/ratelimit/models"
	"prepgate/internal/ratelimit/ports"
)

var tracer = otel.Tracer("prepgate/ratelimit")

// Service evaluates the per-caller sliding-window policy. It keeps no state
// in process: every evaluation round-trips to the shared store, which is what
// makes the limiter correct across concurrent server instances.
//
// The service fails open: if the store is unreachable the request is allowed
// and the error is logged, never propagated. An unreachable cache must not
// take down the product's write paths.
type Service struct {
	store   ports.WindowStore
	logger  *slog.Logger
	cfg     config.RateLimitConfig
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store ports.WindowStore, logger *slog.Logger, cfg config.RateLimitConfig, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("window store is required")
	}
	if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		return nil, errors.New("rate limit config must be positive")
	}
	svc := &Service{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Allow reports whether one more request from identifier may proceed inside
// the current window, recording it if so. The identifier is typically the
// caller's IP address.
func (s *Service) Allow(ctx context.Context, identifier string) *models.Result {
	ctx, span := tracer.Start(ctx, "ratelimit.allow")
	defer span.End()

	key := models.FormatKey(identifier)
	res, err := s.store.Allow(ctx, key, s.cfg.MaxRequests, s.cfg.Window)
	if err != nil {
		s.logger.ErrorContext(ctx, "rate limit store error, failing open",
			"error", err,
			"key", key,
		)
		if s.metrics != nil {
			s.metrics.RecordStoreError()
		}
		res = &models.Result{
			Allowed:   true,
			Limit:     s.cfg.MaxRequests,
			Remaining: s.cfg.MaxRequests - 1,
		}
	}

	span.SetAttributes(attribute.Bool("ratelimit.allowed", res.Allowed))
	if s.metrics != nil {
		s.metrics.RecordDecision(res.Allowed)
	}
	return res
}

// Clear deletes the window for an identifier. Errors are logged and
// swallowed; reset is an ops convenience, not a correctness requirement.
func (s *Service) Clear(ctx context.Context, identifier string) {
	key := models.FormatKey(identifier)
	if err := s.store.Clear(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear rate limit window",
			"error", err,
			"key", key,
		)
	}
}
