package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/testutil"
)

func TestPostgresRepo_Lifecycle(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewPostgresRepo(db, 2*time.Second)
	ctx := context.Background()

	userID := testutil.InsertUser(t, db, "sessions@example.com", "USER")
	otherID := testutil.InsertUser(t, db, "other@example.com", "USER")

	live := &Session{UserID: userID, RefreshTokenHash: "hash-live", UserAgent: "test", IPAddress: "127.0.0.1", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &Session{UserID: userID, RefreshTokenHash: "hash-expired", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, expired))
	require.NotEmpty(t, live.ID)

	found, err := repo.GetByTokenHash(ctx, "hash-live")
	require.NoError(t, err)
	assert.Equal(t, live.ID, found.ID)

	_, err = repo.GetByTokenHash(ctx, "hash-expired")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.ListByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, repo.DeleteForUser(ctx, otherID, live.ID), ErrNotFound)

	removed, err := repo.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, repo.DeleteForUser(ctx, userID, live.ID))
	assert.ErrorIs(t, repo.DeleteByTokenHash(ctx, "hash-live"), ErrNotFound)
}

func TestBlacklistPostgresRepo(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewBlacklistPostgresRepo(db, 2*time.Second)
	ctx := context.Background()
	userID := testutil.InsertUser(t, db, "blacklist@example.com", "USER")

	require.NoError(t, repo.AddToken(ctx, "jti-live", userID, time.Now().Add(time.Hour)))
	require.NoError(t, repo.AddToken(ctx, "jti-live", userID, time.Now().Add(time.Hour)))
	require.NoError(t, repo.AddToken(ctx, "jti-old", userID, time.Now().Add(-time.Hour)))

	revoked, err := repo.IsBlacklisted(ctx, "jti-live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsBlacklisted(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)

	removed, err := repo.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
