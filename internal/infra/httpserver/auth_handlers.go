package httpserver

import (
	"errors"
	"net/http"

	appauth "github.com/bryanwahyu/website-intel/internal/application/auth"
	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/middleware"
)

const (
	invalidLoginMessage = "Invalid username or password"
	loginFailedMessage  = "Login failed. Please try again."
	missingLoginMessage = "Username and password are required"
)

type loginContent struct {
	Username string
	Error    string
}

// GET /
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	if middleware.GetSessionFromContext(req.Context()).Authenticated() {
		http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, req, middleware.LoginPath, http.StatusSeeOther)
}

// GET /login
func (r *Router) handleLoginForm(w http.ResponseWriter, req *http.Request) error {
	if middleware.GetSessionFromContext(req.Context()).Authenticated() {
		http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
		return nil
	}
	return r.render(w, req, http.StatusOK, "login", page{Title: "Sign in", Content: loginContent{}})
}

// POST /login
// Form: username, password
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseForm(); err != nil {
		return errors.Join(errInvalidInput, err)
	}
	username := middleware.SanitizeString(req.PostForm.Get("username"))
	password := req.PostForm.Get("password")

	sess, err := r.authSvc.Login(req.Context(), username, password)
	if err != nil {
		status, msg := loginError(err)
		if status >= http.StatusInternalServerError {
			r.logger.Error("login failed", "user", username, "err", err)
		}
		return r.render(w, req, status, "login", page{
			Title:   "Sign in",
			Content: loginContent{Username: username, Error: msg},
		})
	}

	// sesi lama (kalau ada) dibuang
	if old := middleware.GetSessionFromContext(req.Context()); old != nil {
		if err := r.authSvc.Logout(req.Context(), old.ID); err != nil {
			r.logger.Warn("failed to drop previous session", "session", old.ID, "err", err)
		}
	}
	middleware.SetSessionCookie(w, sess.ID, r.cookieSecure)
	http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
	return nil
}

func loginError(err error) (int, string) {
	switch {
	case errors.Is(err, appauth.ErrMissingCredentials):
		return http.StatusBadRequest, missingLoginMessage
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, invalidLoginMessage
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, appscans.RateLimitMessage
	}
	if detail := domain.DetailOf(err); detail != "" {
		return http.StatusBadGateway, detail
	}
	return http.StatusBadGateway, loginFailedMessage
}

// POST /logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	if sess := middleware.GetSessionFromContext(req.Context()); sess != nil {
		if err := r.authSvc.Logout(req.Context(), sess.ID); err != nil {
			return err
		}
	}
	middleware.ClearSessionCookie(w, r.cookieSecure)
	http.Redirect(w, req, middleware.LoginPath, http.StatusSeeOther)
	return nil
}
