package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

type loaderFunc func(ctx context.Context, id string) (*session.Session, error)

func (f loaderFunc) Current(ctx context.Context, id string) (*session.Session, error) {
	return f(ctx, id)
}

func gated() http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello " + GetSessionFromContext(r.Context()).Username))
	})
	loader := loaderFunc(func(_ context.Context, id string) (*session.Session, error) {
		switch id {
		case "good":
			return &session.Session{ID: id, Username: "admin", Token: "t"}, nil
		case "cleared":
			return &session.Session{ID: id, Username: "admin"}, nil
		case "broken":
			return nil, errors.New("db down")
		}
		return nil, session.ErrNotFound
	})
	return LoadSession(loader)(RequireSession(ok))
}

func request(path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	gated().ServeHTTP(rec, req)
	return rec
}

func TestRequireSessionRedirectsToLogin(t *testing.T) {
	for _, cookie := range []string{"", "unknown", "cleared"} {
		rec := request("/dashboard", cookie)
		assert.Equal(t, http.StatusSeeOther, rec.Code, cookie)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
		assert.NotContains(t, rec.Body.String(), "hello")
	}
}

func TestRequireSessionAPIAnswers401(t *testing.T) {
	rec := request("/api/submission", "cleared")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionPasses(t *testing.T) {
	rec := request("/history", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello admin", rec.Body.String())
}

func TestLoadSessionStoreFailure(t *testing.T) {
	rec := request("/history", "broken")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "abc", true)
	c := rec.Result().Cookies()[0]
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, false)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}
