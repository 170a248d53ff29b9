package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &session.Session{ID: "a", Username: "admin", Token: "tok"}))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Authenticated())

	// copies do not leak back into the store
	got.Token = "changed"
	again, _ := repo.Get(ctx, "a")
	assert.Equal(t, "tok", again.Token)

	require.NoError(t, repo.ClearToken(ctx, "a"))
	cleared, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, cleared.Authenticated())
	assert.Equal(t, "admin", cleared.Username)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), session.ErrNotFound)
	assert.ErrorIs(t, repo.ClearToken(ctx, "a"), session.ErrNotFound)
	assert.NoError(t, repo.Ping(ctx))
}

func TestSessionRepositoryPrune(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &session.Session{ID: "old", Token: "t", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Save(ctx, &session.Session{ID: "loggedout", CreatedAt: now}))
	require.NoError(t, repo.Save(ctx, &session.Session{ID: "live", Token: "t", CreatedAt: now.Add(-time.Hour)}))

	assert.Equal(t, 2, repo.Prune(now.Add(-24*time.Hour)))

	_, err := repo.Get(ctx, "old")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = repo.Get(ctx, "loggedout")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = repo.Get(ctx, "live")
	assert.NoError(t, err)
}
