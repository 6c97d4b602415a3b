package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/model"
)

// Provider names an OAuth identity provider configured on the server.
type Provider string

const (
	Google Provider = "google"
	GitHub Provider = "github"
)

// ParseProvider accepts a provider name in any case.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case Google, GitHub:
		return p, nil
	default:
		return "", apperror.ValidationFailed("provider", fmt.Sprintf("unsupported OAuth provider %q", s))
	}
}

// Callback query parameters set by the server after a provider login.
const (
	paramAccessToken  = "access_token"
	paramRefreshToken = "refresh_token"
	paramUserID       = "user_id"
)

// AuthorizationURL returns the server endpoint that starts the provider
// login. The code-for-token exchange happens on the server; the client only
// ever sees the server's own tokens on the way back.
//
// Example: http://localhost:8080/oauth2/authorization/github
func AuthorizationURL(baseURL string, p Provider) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("auth: parsing base URL: %w", err)
	}
	return u.JoinPath("oauth2", "authorization", string(p)).String(), nil
}

// CallbackResult is a parsed server redirect.
type CallbackResult struct {
	Tokens model.AuthTokens
	// CleanURL is the redirect URL with the token parameters removed, so it
	// can be shown or logged without leaking credentials.
	CleanURL string
}

// ParseCallback extracts the tokens from the redirect the server sends after
// a provider login, for example
//
//	http://127.0.0.1:3000/?access_token=...&refresh_token=...&user_id=...
//
// All three parameters must be present; a redirect carrying only some of
// them is not a completed login.
func ParseCallback(rawURL string) (*CallbackResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing callback URL: %w", err)
	}

	q := u.Query()
	tokens := model.AuthTokens{
		AccessToken:  q.Get(paramAccessToken),
		RefreshToken: q.Get(paramRefreshToken),
		UserID:       q.Get(paramUserID),
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.UserID == "" {
		if e := q.Get("error"); e != "" {
			return nil, apperror.ValidationFailed("callback", fmt.Sprintf("sign-in was not completed: %s", e))
		}
		return nil, apperror.ValidationFailed("callback", "callback is missing access_token, refresh_token or user_id")
	}

	q.Del(paramAccessToken)
	q.Del(paramRefreshToken)
	q.Del(paramUserID)
	u.RawQuery = q.Encode()

	return &CallbackResult{Tokens: tokens, CleanURL: u.String()}, nil
}
