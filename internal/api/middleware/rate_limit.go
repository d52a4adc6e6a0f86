package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	apiContext "boardly/internal/api/context"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/config"
	"boardly/internal/platform/metrics"
)

const (
	ScopePublicWrite = "public_write"
	ScopeAPIWrite    = "api_write"
)

const rateWindow = time.Minute

// RateLimitMiddleware holds one sliding-window limiter per scope, built once
// at startup so every route in a scope shares the same counters.
type RateLimitMiddleware struct {
	public   func(http.Handler) http.Handler
	apiWrite func(http.Handler) http.Handler
}

func NewRateLimitMiddleware(cfg config.RateLimitConfig) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		public:   newScopeLimiter(ScopePublicWrite, cfg.PublicWritePerMinute, httprate.KeyByIP),
		apiWrite: newScopeLimiter(ScopeAPIWrite, cfg.APIWritePerMinute, keyByOrg),
	}
}

// newScopeLimiter returns a pass-through when limit is not positive.
func newScopeLimiter(scope string, limit int, key httprate.KeyFunc) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := httprate.NewRateLimiter(limit, rateWindow,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(limitExceeded(scope)),
	)
	return l.Handler
}

func limitExceeded(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimitRejections.WithLabelValues(scope).Inc()
		if w.Header().Get("Retry-After") == "" {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
		}
		errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
	}
}

// keyByOrg keys on the tenant set by TenantMiddleware, falling back to the
// client IP for requests that carry none.
func keyByOrg(r *http.Request) (string, error) {
	if tenant, ok := r.Context().Value(apiContext.Tenant).(*apiContext.TenantContext); ok && tenant != nil && tenant.OrgID != "" {
		return "org:" + tenant.OrgID, nil
	}
	return httprate.KeyByIP(r)
}

// Public limits unauthenticated writes per client IP.
func (m *RateLimitMiddleware) Public(next http.HandlerFunc) http.HandlerFunc {
	return m.public(next).ServeHTTP
}

// APIWrite limits authenticated writes per organization. It must run after
// the tenant middleware.
func (m *RateLimitMiddleware) APIWrite(next http.HandlerFunc) http.HandlerFunc {
	return m.apiWrite(next).ServeHTTP
}

// ClientIP is the remote address without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
