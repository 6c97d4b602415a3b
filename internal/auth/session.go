// Package auth manages the signed-in session on the client side.
//
// SESSION KEYS:
// Three keys make up a session in local storage, exactly as the server hands
// them out on login, register or the OAuth callback:
//
//	accessToken   bearer token attached to every API call
//	refreshToken  exchanged for a new access token on demand
//	userId        account id of the signed-in user
//
// A fourth key, currentUser, caches the merged account + profile record so
// the landing page can greet the user before any request completes.
//
// The session never validates or refreshes tokens on its own. An expired
// token surfaces as an ordinary failed request.
package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/storage"
)

// Storage keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
	KeyCurrentUser  = "currentUser"
)

// Session reads and writes the session keys in a storage.KV.
type Session struct {
	kv storage.KV
}

// NewSession wraps kv. The session holds no state of its own: every read goes
// to storage, so two sessions over the same store always agree.
func NewSession(kv storage.KV) *Session {
	return &Session{kv: kv}
}

// Save stores all three session keys.
func (s *Session) Save(ctx context.Context, t model.AuthTokens) error {
	if t.AccessToken == "" || t.UserID == "" {
		return apperror.ValidationFailed("accessToken", "auth response is missing the access token or user id")
	}
	for _, kv := range [][2]string{
		{KeyUserID, t.UserID},
		{KeyAccessToken, t.AccessToken},
		{KeyRefreshToken, t.RefreshToken},
	} {
		if err := s.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("auth: saving %s: %w", kv[0], err)
		}
	}
	return nil
}

// SetAccessToken replaces the access token after a refresh.
func (s *Session) SetAccessToken(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, KeyAccessToken, token); err != nil {
		return fmt.Errorf("auth: saving access token: %w", err)
	}
	return nil
}

func (s *Session) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

func (s *Session) UserID(ctx context.Context) (string, error) {
	return s.get(ctx, KeyUserID)
}

// IsAuthenticated reports whether an access token is stored. It does not
// check the token's expiry.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	tok, err := s.AccessToken(ctx)
	return err == nil && tok != ""
}

// CacheUser stores the serialized current user.
func (s *Session) CacheUser(ctx context.Context, u model.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("auth: encoding current user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyCurrentUser, string(b)); err != nil {
		return fmt.Errorf("auth: saving current user: %w", err)
	}
	return nil
}

// CachedUser returns the cached current user, or nil if none is cached.
func (s *Session) CachedUser(ctx context.Context) (*model.User, error) {
	raw, err := s.get(ctx, KeyCurrentUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("auth: decoding cached user: %w", err)
	}
	return &u, nil
}

// Clear removes the session keys and the cached user.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUserID, KeyCurrentUser); err != nil {
		return fmt.Errorf("auth: clearing session: %w", err)
	}
	return nil
}

// TokenSource returns an oauth2.TokenSource that reads the access token from
// storage on every call, so a token saved mid-session is picked up by the
// next request.
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storedTokenSource{ctx: ctx, session: s}
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("auth: reading %s: %w", key, err)
	}
	return v, nil
}

type storedTokenSource struct {
	ctx     context.Context
	session *Session
}

// Token implements oauth2.TokenSource.
func (ts *storedTokenSource) Token() (*oauth2.Token, error) {
	access, err := ts.session.AccessToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, apperror.Unauthenticated()
	}
	refresh, err := ts.session.RefreshToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: refresh,
	}, nil
}
