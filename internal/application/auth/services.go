package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bryanwahyu/website-intel/internal/application"
	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

// ErrMissingCredentials is returned before any backend call when the form is incomplete.
var ErrMissingCredentials = errors.New("username and password are required")

// Discarder drops per-session state held elsewhere (submission timers).
type Discarder interface {
	Discard(sessionID string)
}

// Service owns the auth state: it is the only writer of session tokens
// besides the unauthorized hook.
type Service struct {
	Repo   session.Repository
	Auth   session.Authenticator
	Clock  application.Clock
	Logger *log.Logger
	// Discard is optional; called on logout.
	Discard Discarder
}

// Login exchanges credentials for a token and opens a new session.
func (s *Service) Login(ctx context.Context, username, password string) (*session.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	tok, err := s.Auth.Login(ctx, session.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	sess := &session.Session{
		ID:        uuid.New().String(),
		Username:  username,
		Token:     tok.AccessToken,
		CreatedAt: s.Clock.Now().UTC(),
	}
	if err := s.Repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger().Info("login", "user", username, "session", sess.ID)
	return sess, nil
}

// Logout clears the token and every piece of state tied to the session.
func (s *Service) Logout(ctx context.Context, id string) error {
	if s.Discard != nil {
		s.Discard.Discard(id)
	}
	if err := s.Repo.Delete(ctx, id); err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger().Info("logout", "session", id)
	return nil
}

// Current loads the session for an id. A session without a token is
// returned as-is; the gate decides what to do with it.
func (s *Service) Current(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, session.ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

// Unauthorized is the hook the backend client runs on every 401. The
// session keeps its id but loses its token and any per-session state.
func (s *Service) Unauthorized(sess *session.Session) {
	if sess == nil {
		return
	}
	sess.Token = ""
	if sess.ID == "" {
		return
	}
	if s.Discard != nil {
		s.Discard.Discard(sess.ID)
	}
	if err := s.Repo.ClearToken(context.Background(), sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
		s.logger().Error("failed to clear token", "session", sess.ID, "err", err)
		return
	}
	s.logger().Warn("token rejected by backend, session logged out", "session", sess.ID)
}

func (s *Service) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}
