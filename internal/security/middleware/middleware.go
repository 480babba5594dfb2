package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/security/audit"
	"github.com/yourorg/knowledgehub/internal/security/auth"
	"github.com/yourorg/knowledgehub/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// isPublicPath lists endpoints reachable without a token: health, metrics,
// registration/login and the read-only catalog. The progress websocket
// authenticates itself from a query token because browsers cannot set an
// Authorization header on websocket upgrades.
func isPublicPath(r *http.Request) bool {
	p := r.URL.Path
	if p == "/healthz" || p == "/readyz" || p == "/metrics" {
		return true
	}
	if strings.HasPrefix(p, "/api/auth/") {
		return true
	}
	if strings.HasPrefix(p, "/ws/progress") {
		return true
	}
	if r.Method == http.MethodGet &&
		(p == "/api/catalogue" ||
			strings.HasPrefix(p, "/api/themes/") ||
			strings.HasPrefix(p, "/api/cursuses/") ||
			strings.HasPrefix(p, "/api/lessons/")) {
		return true
	}
	return false
}

// JWTMiddleware resolves the request principal from the Authorization
// header and stores claims plus the acting user ID on the context.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = domain.WithActor(ctx, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware throttles authenticated traffic per user.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			userID := ""
			if c := GetClaimsFromContext(r.Context()); c != nil {
				userID = c.UserID
			}

			if !limiter.Allow(userID) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records mutating requests to the audit log.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				userID := ""
				if c := GetClaimsFromContext(r.Context()); c != nil {
					userID = c.UserID
				}
				auditLog.LogAction(r.Context(), userID, "request", "api", r.URL.Path, "initiated", "")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidateJSONContentType ensures mutating requests with a body carry JSON.
func ValidateJSONContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
					slog.String("method", r.Method),
				)
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole guards a handler behind a role check.
func RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		if claims == nil || !claims.HasRole(role) {
			http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClaimsFromContext returns the request's verified claims, or nil.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		if claims, ok := c.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
