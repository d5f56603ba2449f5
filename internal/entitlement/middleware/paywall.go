package middleware

import (
	"net/http"
	"strings"

	"prepgate/internal/entitlement/models"
	"prepgate/internal/entitlement/ports"
	"prepgate/internal/entitlement/service"
	"prepgate/pkg/platform/httputil"
)

// RequireSubscriber returns middleware that blocks non-entitled callers with
// the fixed paywall body. The gate decides; this layer only translates a
// denial into the wire shape the client upsell flow keys on.
func RequireSubscriber(gate *service.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if denial := gate.Check(r.Context(), RequestCookies{r}, r.URL.Path); denial != nil {
				writePaywall(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writePaywall(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusForbidden, &models.PaywallResponse{
		Code: models.PaywallCode,
	})
}

// RequestCookies adapts *http.Request to the gate's cookie capability.
type RequestCookies struct {
	R *http.Request
}

func (c RequestCookies) CookieValue(name string) (string, bool) {
	cookie, err := c.R.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// HeaderGetter is the minimal surface of a header container. Satisfied by
// http.Header and by the header types of non-net/http ingress layers.
type HeaderGetter interface {
	Get(key string) string
}

// HeaderCookies reads cookies straight out of a Cookie header, for call sites
// that hold headers but no *http.Request.
type HeaderCookies struct {
	Headers HeaderGetter
}

func (c HeaderCookies) CookieValue(name string) (string, bool) {
	raw := c.Headers.Get("Cookie")
	if raw == "" {
		return "", false
	}
	for pair := range strings.SplitSeq(raw, ";") {
		k, v, found := strings.Cut(strings.TrimSpace(pair), "=")
		if found && k == name {
			return v, true
		}
	}
	return "", false
}

var (
	_ ports.CookieSource = RequestCookies{}
	_ ports.CookieSource = HeaderCookies{}
)
