package middleware

import (
	"net/http"
	"time"

	"github.com/stayfinder/stayfinder-api/internal/pkg/errorhandler"
	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
	"github.com/stayfinder/stayfinder-api/internal/pkg/response"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
)

// Auth returns middleware that attaches the caller's session to the request.
// Tokens are not verified here; the accommodation API does that on every
// forwarded call. Expired tokens are turned away early.
func Auth(now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			sess, err := session.FromAuthorizationHeader(authHeader)
			if err != nil {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			if sess.Expired(now()) {
				response.Unauthorized(w, errorhandler.SessionExpiredMessage)
				return
			}

			ctx := session.WithContext(r.Context(), sess)
			if sub := sess.Subject(); sub != "" {
				l := logger.FromContext(ctx).With().Str("user", sub).Logger()
				ctx = logger.WithContext(ctx, &l)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
