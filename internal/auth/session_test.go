package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/storage"
)

func newTestSession(t *testing.T) (*Session, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	return NewSession(kv), kv
}

func TestSession_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestSession(t)

	require.False(t, s.IsAuthenticated(ctx))

	err := s.Save(ctx, model.AuthTokens{UserID: "u1", AccessToken: "acc", RefreshToken: "ref"})
	require.NoError(t, err)

	assert.True(t, s.IsAuthenticated(ctx))
	assert.Equal(t, 3, kv.Len())

	id, err := s.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	acc, _ := s.AccessToken(ctx)
	ref, _ := s.RefreshToken(ctx)
	assert.Equal(t, "acc", acc)
	assert.Equal(t, "ref", ref)
}

func TestSession_SaveRejectsIncompleteTokens(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestSession(t)

	err := s.Save(ctx, model.AuthTokens{UserID: "u1"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Zero(t, kv.Len(), "nothing is written on a rejected save")
}

func TestSession_CachedUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	u, err := s.CachedUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, s.CacheUser(ctx, model.User{ID: "u1", Username: "ana", Biography: "climber"}))

	u, err = s.CachedUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, "climber", u.Biography)
}

func TestSession_Clear(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestSession(t)

	require.NoError(t, s.Save(ctx, model.AuthTokens{UserID: "u1", AccessToken: "acc", RefreshToken: "ref"}))
	require.NoError(t, s.CacheUser(ctx, model.User{ID: "u1"}))
	require.NoError(t, kv.Set(ctx, "theme", "dark"))

	require.NoError(t, s.Clear(ctx))

	assert.False(t, s.IsAuthenticated(ctx))
	u, err := s.CachedUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	v, ok, err := kv.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok, "unrelated keys survive logout")
	assert.Equal(t, "dark", v)
}

func TestSession_TokenSource(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	ts := s.TokenSource(ctx)

	_, err := ts.Token()
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	require.NoError(t, s.Save(ctx, model.AuthTokens{UserID: "u1", AccessToken: "first", RefreshToken: "ref"}))
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "first", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())

	// A refreshed token is seen without rebuilding the source.
	require.NoError(t, s.SetAccessToken(ctx, "second"))
	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "second", tok.AccessToken)
}
