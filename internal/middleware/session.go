package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "qsignal/internal/errors"
	"qsignal/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "qsignal_session"

// Sessions binds every request to a session via cookie. Requests without a
// valid session cookie get a fresh unauthenticated session.
func Sessions(store *session.Store, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "session_middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := lookupSession(store, r, cookieName)
			if sess == nil {
				sess = store.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug("session created", slog.String("session_id", sess.ID))
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func lookupSession(store *session.Store, r *http.Request, cookieName string) *session.Session {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	sess, ok := store.Get(cookie.Value)
	if !ok {
		return nil
	}
	return sess
}

// SessionFromContext returns the session bound to the request, or nil when
// the session middleware did not run.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

// RequireAccess rejects requests whose session has not passed the access
// gate. Downstream stages rely on this boundary check and do not re-check
// per stage.
func RequireAccess(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "access_middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil || !sess.Authenticated() {
				log.Warn("blocked unauthenticated request",
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				render.Render(w, r, apperrors.ToProblem(apperrors.ErrNotAuthenticated, r.URL.Path))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
