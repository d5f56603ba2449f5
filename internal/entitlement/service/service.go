package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"prepgate/internal/analytics"
	"prepgate/internal/entitlement/gracecookie"
	"prepgate/internal/entitlement/metrics"
	"prepgate/internal/entitlement/models"
	"prepgate/internal/entitlement/ports"
	"prepgate/internal/platform/middleware/metadata"
)

var tracer = otel.Tracer("prepgate/entitlement")

// SessionCookieName carries the caller's session token on authenticated
// requests.
const SessionCookieName = "psession"

// Service decides, per request, whether the caller may access a
// subscriber-only route. Unlike the rate limiter it fails closed: any error
// resolving identity or subscription status denies the request, because the
// cost of leaking paid content outweighs the cost of a paying user retrying.
type Service struct {
	graceSecret   string
	auth          ports.Authenticator
	subscriptions ports.SubscriptionStore
	analytics     ports.AnalyticsSink
	logger        *slog.Logger
	denialLog     io.Writer
	metrics       *metrics.Metrics
	now           func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDenialLog redirects the paywall_block log stream. Defaults to stdout.
func WithDenialLog(w io.Writer) Option {
	return func(s *Service) {
		s.denialLog = w
	}
}

// WithClock fixes the verification clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(
	graceSecret string,
	auth ports.Authenticator,
	subscriptions ports.SubscriptionStore,
	sink ports.AnalyticsSink,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	if subscriptions == nil {
		return nil, errors.New("subscription store is required")
	}
	if sink == nil {
		return nil, errors.New("analytics sink is required")
	}

	svc := &Service{
		graceSecret:   graceSecret,
		auth:          auth,
		subscriptions: subscriptions,
		analytics:     sink,
		logger:        logger,
		denialLog:     os.Stdout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	if graceSecret == "" {
		// Configuration gap: no grace cookie can be validated, so the fast
		// path is disabled and every request takes the standard check.
		logger.Warn("GRACE_COOKIE_SECRET not set, grace cookie fast path disabled")
	}
	return svc, nil
}

// Check evaluates the ordered decision procedure for one request. A nil
// return means the caller may proceed; the allow paths are silent (no log,
// no analytics) to keep the hot already-paying path cheap.
func (s *Service) Check(ctx context.Context, cookies ports.CookieSource, route string) *models.Denial {
	ctx, span := tracer.Start(ctx, "entitlement.check",
		trace.WithAttributes(attribute.String("route", route)))
	defer span.End()

	// Grace-cookie fast path: a validly signed, unexpired cookie admits the
	// bearer with zero collaborator calls. An invalid or expired one denies
	// immediately rather than falling through to auth.
	if value, ok := cookies.CookieValue(gracecookie.Name); ok && s.graceSecret != "" {
		claims, err := gracecookie.Verify(s.graceSecret, value, s.now())
		switch {
		case err == nil:
			span.SetAttributes(attribute.String("entitlement.decision", "grace_allow"))
			if s.metrics != nil {
				s.metrics.RecordGraceAllow()
			}
			return nil
		case errors.Is(err, gracecookie.ErrExpired):
			// Signature verified, so the embedded identity is trustworthy.
			userID := claims.UserID
			return s.recordDenial(ctx, span, route, &userID, models.ReasonGraceCookieExpired)
		default:
			// Payload untrusted: the user id inside it cannot be reported.
			return s.recordDenial(ctx, span, route, nil, models.ReasonGraceCookieInvalid)
		}
	}

	token, ok := cookies.CookieValue(SessionCookieName)
	if !ok {
		return s.recordDenial(ctx, span, route, nil, models.ReasonUnauthenticated)
	}

	userID, err := s.auth.Resolve(ctx, token)
	if err != nil || userID == "" {
		return s.recordDenial(ctx, span, route, nil, models.ReasonUnauthenticated)
	}

	subscribed, err := s.subscriptions.IsSubscriber(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "subscription lookup failed, failing closed",
			"error", err,
			"user_id", userID,
			"route", route,
		)
		return s.recordDenial(ctx, span, route, &userID, models.ReasonNotSubscriber)
	}
	if !subscribed {
		return s.recordDenial(ctx, span, route, &userID, models.ReasonNotSubscriber)
	}

	span.SetAttributes(attribute.String("entitlement.decision", "allow"))
	return nil
}

// paywallLog is the structured log line emitted on every denial. Field order
// is a contract with downstream log-based alerting: encoding/json preserves
// struct order, so do not reorder these fields.
type paywallLog struct {
	Event  string  `json:"event"`
	Route  string  `json:"route"`
	UserID *string `json:"userId"`
	Reason string  `json:"reason"`
	TS     string  `json:"ts"`
}

// recordDenial is the single place both denial side effects happen, so the
// log line and the analytics event cannot drift apart when reasons are added.
func (s *Service) recordDenial(ctx context.Context, span trace.Span, route string, userID *string, reason models.Reason) *models.Denial {
	span.SetAttributes(attribute.String("entitlement.decision", string(reason)))

	line, err := json.Marshal(paywallLog{
		Event:  "paywall_block",
		Route:  route,
		UserID: userID,
		Reason: string(reason),
		TS:     s.now().UTC().Format(time.RFC3339),
	})
	if err == nil {
		fmt.Fprintln(s.denialLog, string(line))
	}

	props := map[string]any{
		"route":  route,
		"reason": string(reason),
	}
	if ua := metadata.GetUserAgent(ctx); ua != "" {
		props["device_class"] = metadata.DeviceClass(ua)
	}
	if err := s.analytics.Publish(ctx, analytics.NewEvent(analytics.EventEntitlementCheckFailed, userID, props)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish paywall analytics event",
			"error", err,
			"route", route,
		)
	}

	if s.metrics != nil {
		s.metrics.RecordBlock(string(reason))
	}
	return &models.Denial{Reason: reason, UserID: userID}
}
