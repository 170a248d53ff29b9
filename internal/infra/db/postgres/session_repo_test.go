package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

// Runs against a real server only when WEBINTEL_TEST_POSTGRES_DSN is set.
func TestSessionRepositoryPostgres(t *testing.T) {
	dsn := os.Getenv("WEBINTEL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WEBINTEL_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSessionRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.Ping(ctx))

	id := uuid.New().String()
	t.Cleanup(func() { _ = repo.Delete(context.Background(), id) })

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrNotFound)

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &session.Session{ID: id, Username: "admin", Token: "tok", CreatedAt: created}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.Equal(t, "tok", got.Token)
	assert.True(t, created.Equal(got.CreatedAt))

	// upsert keeps created_at
	require.NoError(t, repo.Save(ctx, &session.Session{ID: id, Username: "admin", Token: "tok2"}))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tok2", got.Token)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, repo.ClearToken(ctx, id))
	require.NoError(t, repo.ClearToken(ctx, id))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Authenticated())
	assert.Equal(t, "admin", got.Username)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), session.ErrNotFound)
	assert.ErrorIs(t, repo.ClearToken(ctx, id), session.ErrNotFound)
}
