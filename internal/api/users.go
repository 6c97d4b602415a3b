package api

import (
	"context"
	"net/http"

	"github.com/sakif/skillflow/internal/model"
)

// UserService covers accounts (/api/users) and profiles (/api/userProfiles).
// A "user" on the client is always the merge of the two.
type UserService struct {
	c *Client
}

// Exists reports whether username is taken. It is called before sign-up, so
// it sends no token.
func (s *UserService) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := s.c.callAnon(ctx, "check username", http.MethodGet, nil, &exists, pathUsers, "exists", username); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *UserService) Account(ctx context.Context, id string) (*model.Account, error) {
	var out model.Account
	if err := s.c.call(ctx, "load user", http.MethodGet, nil, &out, pathUsers, id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) CreateProfile(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	var out model.Profile
	if err := s.c.call(ctx, "create profile", http.MethodPost, p, &out, pathUserProfiles); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Profile(ctx context.Context, id string) (*model.Profile, error) {
	var out model.Profile
	if err := s.c.call(ctx, "load profile", http.MethodGet, nil, &out, pathUserProfiles, id); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profiles lists every profile. The community page shows these as users.
func (s *UserService) Profiles(ctx context.Context) ([]model.Profile, error) {
	var out []model.Profile
	if err := s.c.call(ctx, "load users", http.MethodGet, nil, &out, pathUserProfiles); err != nil {
		return nil, err
	}
	return out, nil
}

// ProfilesByUser lists the profiles of one account. In practice there is at
// most one.
func (s *UserService) ProfilesByUser(ctx context.Context, userID string) ([]model.Profile, error) {
	var out []model.Profile
	if err := s.c.call(ctx, "load profile", http.MethodGet, nil, &out, pathUserProfiles, "user", userID); err != nil {
		return nil, err
	}
	return out, nil
}

// Current loads the account and its first profile and merges them. An
// account without a profile yields a user with empty profile fields.
func (s *UserService) Current(ctx context.Context, userID string) (*model.User, error) {
	acc, err := s.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.ProfilesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var p *model.Profile
	if len(profiles) > 0 {
		p = &profiles[0]
	}
	u := model.MergeUser(*acc, p)
	return &u, nil
}

// UpdateProfile writes the profile half of u to PUT /userProfiles/{profileId}.
func (s *UserService) UpdateProfile(ctx context.Context, u model.User) (*model.Profile, error) {
	p := u.Profile()
	var out model.Profile
	if err := s.c.call(ctx, "update profile", http.MethodPut, p, &out, pathUserProfiles, u.ProfileID); err != nil {
		return nil, err
	}
	return &out, nil
}

type oauthRegisterResponse struct {
	UserID string `json:"userId"`
}

// RegisterOAuth creates the account for a provider identity and returns its id.
func (s *UserService) RegisterOAuth(ctx context.Context, req model.OAuthRegistration) (string, error) {
	var out oauthRegisterResponse
	if err := s.c.call(ctx, "register account", http.MethodPost, req, &out, pathUsers, "oauth", "register"); err != nil {
		return "", err
	}
	return out.UserID, nil
}
