package models

import "time"

// Subscription statuses that can grant access. Other statuses exist upstream
// (past_due, canceled, incomplete) but never entitle.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
)

// Subscription is the billing state the gate consults for one user. Stores
// return the user's most recent subscription by period end.
type Subscription struct {
	UserID            string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}

// Entitled reports whether this subscription grants access at the given
// instant. A cancellation scheduled for period end keeps access until the
// period actually ends.
func (s Subscription) Entitled(now time.Time) bool {
	if s.Status != StatusActive && s.Status != StatusTrialing {
		return false
	}
	if s.CancelAtPeriodEnd && s.CurrentPeriodEnd != nil {
		return now.Before(*s.CurrentPeriodEnd)
	}
	return true
}

// Reason classifies why the gate denied a request. These are stable string
// identifiers consumed by downstream dashboards and log-based alerting; new
// reasons may be added but existing ones must not be renamed.
type Reason string

const (
	ReasonGraceCookieExpired Reason = "grace_cookie_expired"
	ReasonGraceCookieInvalid Reason = "grace_cookie_invalid"
	ReasonUnauthenticated    Reason = "unauthenticated"
	ReasonNotSubscriber      Reason = "not_subscriber"
)

// Denial is the gate's negative outcome for one request. A nil *Denial means
// the request passes through. UserID is nil when the caller's identity is
// unknown at denial time (anonymous requests, or a cookie whose payload
// cannot be trusted because its signature failed).
type Denial struct {
	Reason Reason
	UserID *string
}

// PaywallResponse is the wire shape for every entitlement denial. The
// client UI keys an upsell flow off this exact body; never add fields.
type PaywallResponse struct {
	Code string `json:"code"`
}

// PaywallCode is the only value PaywallResponse ever carries.
const PaywallCode = "PAYWALL"
