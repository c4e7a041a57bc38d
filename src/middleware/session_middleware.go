package middleware

import (
	"context"
	"net/http"

	"finlink-server/src/errs"
	"finlink-server/src/models"
	"finlink-server/src/util"
)

// UserResolver turns a session secret digest into the session's user.
type UserResolver func(ctx context.Context, secretDigest string) (*models.User, error)

// SessionAuthMiddleware resolves the session cookie and puts the user on
// the request context. Missing, unknown, and expired sessions are all the
// same 401 to the client.
func SessionAuthMiddleware(resolve UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(util.SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "not authorized", http.StatusUnauthorized)
				return
			}

			user, err := resolve(r.Context(), util.SessionDigest(cookie.Value))
			if err != nil {
				http.Error(w, errs.Message(err), errs.HTTPStatus(err))
				return
			}

			ctx := context.WithValue(r.Context(), "user", user)
			ctx = context.WithValue(ctx, "user_id", user.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
