package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
)

type PresenceTracker interface {
	Touch(ctx context.Context, userID string) error
}

// Presence stamps the authenticated caller as active. It must run after the auth
// middleware; a failed stamp is logged and the request continues.
func Presence(tracker PresenceTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := internal.UserIDFromContext(r.Context()); userID != "" {
				if err := tracker.Touch(r.Context(), userID); err != nil {
					logger.From(r.Context()).Warn("presence update failed", "user_id", userID, "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
