package auth

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"civicdesk/pkg/logger"
	"civicdesk/pkg/utils"
)

// AuthenticateRequestMiddleware handles CORS, bearer token verification
// and per-caller rate limiting, then attaches the resolved principal to
// the request context.
func AuthenticateRequestMiddleware(cfg SecConfig) func(http.Handler) http.Handler {
	// rate limiters keyed by user id or remote ip
	limiters := newLimiterPool(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// log request (redacts sensitive headers)
			logger.LogRequest(r)

			// cors preflight
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,PATCH,OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// health checks stay unauthenticated
			if (r.URL.Path == "/healthz" || r.URL.Path == "/readyz") && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			// public endpoints: registration, the contact form and
			// feedback
			if publicEndpoint(r) {
				if !limiters.Allow(clientIP(r)) {
					utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				// rate limit anonymous callers by ip before rejecting
				if !limiters.Allow(clientIP(r)) {
					utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
					logger.Warn("rate_limited", "path", r.URL.Path, "remote", r.RemoteAddr)
					return
				}
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
				logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
				return
			}

			p, err := Authenticate(cfg.JWTSecret, token)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
				logger.Warn("request_invalid_token", "path", r.URL.Path, "remote", r.RemoteAddr)
				return
			}

			// rate limiting keyed by authenticated subject
			if !limiters.Allow(strconv.Itoa(p.ID)) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "path", r.URL.Path, "user_id", p.ID)
				return
			}

			logger.Info("request_allowed", "method", r.Method, "path", r.URL.Path, "role", p.Role)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin rejects requests whose principal lacks the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !p.IsAdmin() {
			utils.JSONError(w, http.StatusForbidden, "forbidden")
			logger.Warn("request_forbidden", "reason", "admin_required", "path", r.URL.Path, "user_id", p.ID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// publicEndpoint reports whether the route is reachable without a
// principal: account self-registration, the contact form, feedback
// submission and the approved-feedback listing.
func publicEndpoint(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost:
		return r.URL.Path == "/v1/users/register" || r.URL.Path == "/v1/contact" || r.URL.Path == "/v1/feedback"
	case http.MethodGet:
		return r.URL.Path == "/v1/feedback/approved"
	}
	return false
}

// bearerToken extracts the token from Authorization or a query parameter.
// The query form exists for websocket clients that cannot set headers.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
