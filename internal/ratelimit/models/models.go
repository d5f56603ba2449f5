package models

import (
	"strings"
	"time"
)

// KeyPrefix namespaces all sliding-window keys in the shared store.
const KeyPrefix = "rate_limit"

// FormatKey builds the store key for a caller identity, typically an IP
// address. The identity segment is sanitized so a caller-controlled value
// containing ':' cannot collide with an adjacent bucket.
func FormatKey(identifier string) string {
	return KeyPrefix + ":" + SanitizeKeySegment(identifier)
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers containing
// ':' could manipulate adjacent rate limit buckets.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// ExceededResponse is the API response when the rate limit is exceeded.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}
