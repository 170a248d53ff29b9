package auth

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/website-intel/internal/application"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/domain/session"
	"github.com/bryanwahyu/website-intel/internal/infra/db/memory"
)

type fakeAuthenticator struct {
	err   error
	calls int
}

func (f *fakeAuthenticator) Login(_ context.Context, c session.Credentials) (*session.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &session.Token{AccessToken: "tok-" + c.Username, TokenType: "bearer"}, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) AfterFunc(d time.Duration, f func()) application.Timer {
	return time.AfterFunc(d, f)
}

type discardRecorder struct{ ids []string }

func (d *discardRecorder) Discard(id string) { d.ids = append(d.ids, id) }

func newTestService(auth session.Authenticator) (*Service, *memory.SessionRepository, *discardRecorder) {
	repo := memory.NewSessionRepository()
	disc := &discardRecorder{}
	return &Service{
		Repo:    repo,
		Auth:    auth,
		Clock:   fixedClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		Logger:  log.New(io.Discard),
		Discard: disc,
	}, repo, disc
}

func TestLoginStoresSession(t *testing.T) {
	svc, repo, _ := newTestService(&fakeAuthenticator{})

	sess, err := svc.Login(context.Background(), "  alice ", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, "tok-alice", sess.Token)
	assert.True(t, sess.Authenticated())

	stored, err := repo.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, stored.Token)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), stored.CreatedAt)
}

func TestLoginRejectsMissingCredentials(t *testing.T) {
	auth := &fakeAuthenticator{}
	svc, _, _ := newTestService(auth)

	_, err := svc.Login(context.Background(), " ", "secret")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = svc.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, auth.calls)
}

func TestLoginPropagatesBackendError(t *testing.T) {
	svc, _, _ := newTestService(&fakeAuthenticator{err: domain.NewAPIError(http.StatusUnauthorized, "Incorrect username or password")})

	_, err := svc.Login(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUnauthorizedClearsToken(t *testing.T) {
	svc, repo, disc := newTestService(&fakeAuthenticator{})
	sess, err := svc.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	svc.Unauthorized(sess)
	assert.Empty(t, sess.Token)
	assert.Equal(t, []string{sess.ID}, disc.ids)

	stored, err := repo.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, stored.Authenticated())

	// nil session (login call) is ignored
	svc.Unauthorized(nil)
}

func TestLogoutDiscardsState(t *testing.T) {
	svc, repo, disc := newTestService(&fakeAuthenticator{})
	sess, err := svc.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sess.ID))
	assert.Equal(t, []string{sess.ID}, disc.ids)

	_, err = repo.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// second logout is a no-op
	require.NoError(t, svc.Logout(context.Background(), sess.ID))
}
