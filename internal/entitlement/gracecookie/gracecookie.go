// Package gracecookie implements the short-lived signed bypass credential
// that lets a bearer skip the subscription check until a fixed expiry.
//
// Wire format: base64(JSON{userId,exp}) + "." + hex(HMAC-SHA256(secret, JSON)).
// The cookie is issued after checkout (or by support tooling) and verified on
// every protected request; it is never mutated here.
package gracecookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Name is the cookie the gate reads from inbound requests.
const Name = "tgrace"

// Claims is the signed payload. Exp is Unix seconds.
type Claims struct {
	UserID string `json:"userId"`
	Exp    int64  `json:"exp"`
}

var (
	// ErrMalformed covers values that are not base64(payload).hex(tag).
	ErrMalformed = errors.New("grace cookie malformed")
	// ErrBadSignature means the tag does not match the payload; nothing in
	// the payload may be trusted.
	ErrBadSignature = errors.New("grace cookie signature mismatch")
	// ErrExpired means the signature checked out but exp has passed. The
	// returned claims are trustworthy.
	ErrExpired = errors.New("grace cookie expired")
)

// Sign issues a cookie value for userID that expires at exp.
func Sign(secret, userID string, exp time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is required")
	}
	payload, err := json.Marshal(Claims{UserID: userID, Exp: exp.Unix()})
	if err != nil {
		return "", fmt.Errorf("marshal grace claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload) + "." + hex.EncodeToString(tag(secret, payload)), nil
}

// Verify checks value against secret and the clock. On ErrExpired the claims
// are returned alongside the error so callers can attribute the denial to a
// known user; on any other error the claims are nil because the payload is
// untrusted.
func Verify(secret, value string, now time.Time) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("verification secret is required")
	}

	encodedPayload, signature, ok := strings.Cut(value, ".")
	if !ok || encodedPayload == "" || signature == "" {
		return nil, ErrMalformed
	}

	payload, err := base64.StdEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, ErrMalformed
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return nil, ErrMalformed
	}

	// Constant-time comparison; a plain == would leak prefix length.
	if !hmac.Equal(tag(secret, payload), provided) {
		return nil, ErrBadSignature
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformed
	}

	if claims.Exp < now.Unix() {
		return &claims, ErrExpired
	}
	return &claims, nil
}

func tag(secret string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}
