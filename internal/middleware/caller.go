// Package middleware contains HTTP middleware for the calculator API.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/imocalc/imocalc/internal/domain"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// AnonCookieName stores the anonymous session id used to key quota
	// for callers without an account.
	AnonCookieName = "imocalc_anon"

	AnonCookiePath = "/"

	// 30 days; the quota day resets nightly regardless.
	AnonCookieMaxAge = 30 * 24 * 60 * 60

	// HeaderUserID carries the authenticated user id, set by the
	// upstream gateway after it validates the session.
	HeaderUserID = "X-User-ID"

	// HeaderSubscriptionTier carries the resolved subscription tier.
	// Only honored alongside a user id; anonymous callers cannot claim
	// a paid tier.
	HeaderSubscriptionTier = "X-Subscription-Tier"
)

// =============================================================================
// Context Keys
// =============================================================================

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const callerContextKey contextKey = "caller"

// Caller identifies who is spending quota on a request.
type Caller struct {
	// Key is the stable quota key: "user:<id>" for identified callers,
	// "anon:<digest>" otherwise.
	Key  string
	Tier domain.SubscriptionTier
}

// GetCaller retrieves the resolved caller from the request context.
// Requests that did not pass through Resolve read as an anonymous caller
// with an empty key.
func GetCaller(ctx context.Context) Caller {
	caller, ok := ctx.Value(callerContextKey).(Caller)
	if !ok {
		return Caller{Tier: domain.TierAnonymous}
	}
	return caller
}

func setCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// =============================================================================
// Caller Middleware
// =============================================================================

// CallerMiddleware resolves the caller identity for quota enforcement.
type CallerMiddleware struct {
	logger   *slog.Logger
	isSecure bool
}

// NewCallerMiddleware creates a CallerMiddleware. Set isSecure in
// production so the anonymous cookie is HTTPS-only.
func NewCallerMiddleware(logger *slog.Logger, isSecure bool) *CallerMiddleware {
	return &CallerMiddleware{
		logger:   logger,
		isSecure: isSecure,
	}
}

// Resolve attaches a Caller to the request context.
//
// Identified callers (X-User-ID present) are keyed by user id and get the
// tier the gateway resolved for them. Everyone else is keyed by an
// anonymous session cookie combined with the client IP, hashed so neither
// appears in stores or logs; the cookie is minted here on first contact.
func (m *CallerMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var caller Caller

		if userID := strings.TrimSpace(r.Header.Get(HeaderUserID)); userID != "" {
			caller = Caller{
				Key:  "user:" + userID,
				Tier: domain.ParseTier(r.Header.Get(HeaderSubscriptionTier)),
			}
		} else {
			caller = Caller{
				Key:  "anon:" + m.anonDigest(w, r),
				Tier: domain.TierAnonymous,
			}
		}

		next.ServeHTTP(w, r.WithContext(setCaller(r.Context(), caller)))
	})
}

// anonDigest returns a stable digest for an unidentified caller, minting
// the session cookie when absent.
func (m *CallerMiddleware) anonDigest(w http.ResponseWriter, r *http.Request) string {
	var sid string
	if cookie, err := r.Cookie(AnonCookieName); err == nil && cookie.Value != "" {
		sid = cookie.Value
	} else {
		sid = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     AnonCookieName,
			Value:    sid,
			Path:     AnonCookiePath,
			MaxAge:   AnonCookieMaxAge,
			HttpOnly: true,
			Secure:   m.isSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	sum := sha256.Sum256([]byte(sid + "|" + getClientIP(r)))
	return hex.EncodeToString(sum[:16])
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes middleware; the first entry is the outermost.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// =============================================================================
// Request Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2.
	// The first one is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if clientIP != "" {
				return clientIP
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
