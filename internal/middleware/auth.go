package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

type contextKey string

const (
	SessionKey contextKey = "session"

	// SessionCookie holds the dashboard session id (never the token itself).
	SessionCookie = "webintel_session"
	LoginPath     = "/login"
)

// SessionLoader resolves a session id into a session.
type SessionLoader interface {
	Current(ctx context.Context, id string) (*session.Session, error)
}

// LoadSession puts the session named by the cookie into the request context
// when one exists. Unknown ids are ignored.
func LoadSession(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := loader.Current(r.Context(), c.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession is the auth gate: no token, no page. HTML routes are
// redirected to the login page, API routes get 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetSessionFromContext(r.Context()).Authenticated() {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// GetSessionFromContext extracts the session from context (nil when absent)
func GetSessionFromContext(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(SessionKey).(*session.Session); ok {
		return sess
	}
	return nil
}

// SetSessionCookie writes the session id cookie.
func SetSessionCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
