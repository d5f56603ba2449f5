package ports

import (
	"context"

	"prepgate/internal/analytics"
)

// Authenticator resolves the caller's identity from a session token.
// Implementations return an error for missing, malformed, or expired tokens;
// the gate treats every resolution failure as unauthenticated.
type Authenticator interface {
	Resolve(ctx context.Context, sessionToken string) (userID string, err error)
}

// SubscriptionStore answers the single question the gate asks of the billing
// collaborator: does this user currently hold an active entitlement.
type SubscriptionStore interface {
	IsSubscriber(ctx context.Context, userID string) (bool, error)
}

// AnalyticsSink receives denial telemetry.
type AnalyticsSink interface {
	Publish(ctx context.Context, event analytics.Event) error
}

// CookieSource yields a named cookie's string value. It is the narrow
// capability the gate needs from a request; both *http.Request and a bare
// header container satisfy it through the adapters in the middleware package.
type CookieSource interface {
	CookieValue(name string) (string, bool)
}
