// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/auth"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
	"github.com/capitalize-ai/marketplace-messaging/pkg/metrics"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for the verified identity.
	UserIDKey ContextKey = "user_id"
)

// Auth creates bearer-token authentication middleware. The verified identity
// is stored in the request context.
func Auth(verifier *auth.Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(auth.TokenFromRequest(r))
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("rest").Inc()
				log.Debug("authentication failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeJSONError(w, http.StatusUnauthorized, "invalid or missing credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), identity)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the verified identity.
func WithUserID(ctx context.Context, userID string) context.Context {
	if holder, ok := ctx.Value(identityHolderKey).(*identityHolder); ok {
		holder.userID = userID
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID gets user ID from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}
