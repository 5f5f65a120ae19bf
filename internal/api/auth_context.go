package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/moodtrail/moodtrail/internal/auth"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userIDKey is the context key for the authenticated user ID.
const userIDKey ctxKey = "userID"

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", domainerrors.Unauthorized("Authentication required")
	}
	return userID, nil
}

func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// authMiddleware validates Bearer tokens and stores the subject in context.
// Requests without a valid token continue anonymously; handlers reject them.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setUserID(r.Context(), claims.UserID())))
		})
	}
}

// authorize checks that the caller owns the user-scoped path.
func authorize(ctx context.Context, pathUserID string) error {
	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}
	if userID != pathUserID {
		return domainerrors.PermissionDenied()
	}
	return nil
}
