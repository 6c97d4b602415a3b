package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/model"
)

// AuthService covers /api/auth and /api/users/me.
//
// Login and Register return the tokens but do not store them; the caller
// decides when a session begins.
type AuthService struct {
	c *Client
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.AuthTokens, error) {
	var out model.AuthTokens
	err := s.c.callAnon(ctx, "sign in", http.MethodPost,
		model.Credentials{Username: username, Password: password}, &out, pathAuth, "login")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*model.AuthTokens, error) {
	var out model.AuthTokens
	err := s.c.callAnon(ctx, "register", http.MethodPost,
		model.Credentials{Username: username, Password: password}, &out, pathAuth, "register")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Refresh exchanges the stored refresh token for a new access token and
// stores it. Any failure ends the session: the stored keys are cleared.
func (s *AuthService) Refresh(ctx context.Context) (string, error) {
	session := s.c.session

	refresh, err := session.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		return "", apperror.Unauthenticated()
	}

	var out refreshResponse
	err = s.c.callAnon(ctx, "refresh session", http.MethodPost, refreshRequest{RefreshToken: refresh}, &out, pathAuth, "refresh")
	if err == nil && out.AccessToken == "" {
		err = apperror.RequestFailed("refresh session", 0, errors.New("response has no access token"))
	}
	if err != nil {
		s.c.logger.Warn("token refresh failed, signing out", slog.String("error", err.Error()))
		if clearErr := session.Clear(ctx); clearErr != nil {
			return "", errors.Join(err, clearErr)
		}
		return "", err
	}

	if err := session.SetAccessToken(ctx, out.AccessToken); err != nil {
		return "", fmt.Errorf("api: storing refreshed token: %w", err)
	}
	return out.AccessToken, nil
}

// Me returns the account behind the current access token.
func (s *AuthService) Me(ctx context.Context) (*model.Account, error) {
	var out model.Account
	if err := s.c.call(ctx, "load current account", http.MethodGet, nil, &out, pathUsers, "me"); err != nil {
		return nil, err
	}
	return &out, nil
}
