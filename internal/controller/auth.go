package controller

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/model"
)

// Password rules.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 20
)

// msgPasswordMismatch is shown when the confirmation differs.
const msgPasswordMismatch = "The two passwords that you entered do not match!"

// AuthController signs users in and out.
type AuthController struct {
	base
}

// SignIn exchanges credentials for a session and loads the current user.
func (c *AuthController) SignIn(ctx context.Context, username, password string) error {
	a := action{name: "sign in", success: "Welcome back!", failure: "Invalid username or password"}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("username", username, "Please input your username!"); err != nil {
			return err
		}
		if err := required("password", password, "Please input your password!"); err != nil {
			return err
		}

		tokens, err := c.d.API.Auth.Login(ctx, strings.TrimSpace(username), password)
		if err != nil {
			return err
		}
		if err := c.d.Session.Save(ctx, *tokens); err != nil {
			return err
		}
		return c.loadCurrentUser(ctx, tokens.UserID)
	})
}

// SignUpForm is the registration form.
type SignUpForm struct {
	Username     string
	Email        string
	Password     string
	Confirm      string
	Biography    string
	FitnessGoals string
	Image        *media.Source // optional
}

// Validate checks the form without touching the network.
func (f SignUpForm) Validate() error {
	if err := required("username", f.Username, "Please input your username!"); err != nil {
		return err
	}
	if err := required("email", f.Email, "Please input your email!"); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != strings.TrimSpace(f.Email) {
		return apperror.ValidationFailed("email", "The input is not a valid email!")
	}
	if err := required("password", f.Password, "Please input your password!"); err != nil {
		return err
	}
	if err := validatePassword(f.Password); err != nil {
		return err
	}
	if f.Confirm != f.Password {
		return apperror.ValidationFailed("confirm", msgPasswordMismatch)
	}
	if err := required("biography", f.Biography, "Please input your biography!"); err != nil {
		return err
	}
	return required("fitnessGoals", f.FitnessGoals, "Please input your skill goals!")
}

func validatePassword(pw string) error {
	n := len([]rune(pw))
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if n < MinPasswordLength || n > MaxPasswordLength || !letter || !digit {
		return apperror.ValidationFailed("password", fmt.Sprintf(
			"Password must be %d-%d characters and contain at least one letter and one number.",
			MinPasswordLength, MaxPasswordLength))
	}
	return nil
}

// SignUp registers an account, starts its session, uploads the optional
// profile image and creates the profile.
func (c *AuthController) SignUp(ctx context.Context, f SignUpForm) error {
	a := action{
		name:    "sign up",
		success: fmt.Sprintf("Welcome %s! Your account has been created.", f.Username),
		failure: "Error creating your profile",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := f.Validate(); err != nil {
			return err
		}
		username := strings.TrimSpace(f.Username)

		exists, err := c.d.API.Users.Exists(ctx, username)
		if err != nil {
			return err
		}
		if exists {
			return apperror.ValidationFailed("username", "User already exists with this username")
		}

		tokens, err := c.d.API.Auth.Register(ctx, username, f.Password)
		if err != nil {
			return err
		}
		if err := c.d.Session.Save(ctx, *tokens); err != nil {
			return err
		}

		var image string
		if f.Image != nil {
			if image, _, err = c.upload(ctx, api.FolderUserImages, *f.Image, model.MediaImage); err != nil {
				return err
			}
		}

		_, err = c.d.API.Users.CreateProfile(ctx, &model.Profile{
			UserID:       tokens.UserID,
			Biography:    f.Biography,
			FitnessGoals: f.FitnessGoals,
			Image:        image,
			Email:        strings.TrimSpace(f.Email),
		})
		if err != nil {
			return err
		}
		return c.loadCurrentUser(ctx, tokens.UserID)
	})
}

// Logout clears the stored session and the current user.
func (c *AuthController) Logout(ctx context.Context) error {
	return c.run(ctx, action{name: "logout", success: "Logged out successfully"}, func(ctx context.Context) error {
		if err := c.d.Session.Clear(ctx); err != nil {
			return err
		}
		c.d.State.SetCurrentUser(nil)
		return nil
	})
}

// CompleteOAuth finishes a provider sign-in from the server's redirect URL.
func (c *AuthController) CompleteOAuth(ctx context.Context, callbackURL string) error {
	return c.run(ctx, action{name: "oauth sign in", success: "Successfully signed in!"}, func(ctx context.Context) error {
		res, err := auth.ParseCallback(callbackURL)
		if err != nil {
			return err
		}
		if err := c.d.Session.Save(ctx, res.Tokens); err != nil {
			return err
		}
		return c.loadCurrentUser(ctx, res.Tokens.UserID)
	})
}

// ProfileForm is the profile half of sign-up, used to finish an OAuth
// registration.
type ProfileForm struct {
	Username     string
	Email        string
	Biography    string
	FitnessGoals string
	Image        *media.Source // optional; the provider picture is used otherwise
}

// CompleteOAuthProfile registers a provider identity as an account and
// creates its profile. The session must already hold the access token from
// the provider sign-in.
func (c *AuthController) CompleteOAuthProfile(ctx context.Context, reg model.OAuthRegistration, f ProfileForm) error {
	a := action{
		name:    "complete profile",
		success: fmt.Sprintf("Welcome %s! Your profile is complete.", f.Username),
		failure: "Error creating your profile. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("username", f.Username, "Please input your username!"); err != nil {
			return err
		}
		if err := required("biography", f.Biography, "Please input your biography!"); err != nil {
			return err
		}
		if err := required("fitnessGoals", f.FitnessGoals, "Please input your skill goals!"); err != nil {
			return err
		}

		access, err := c.d.Session.AccessToken(ctx)
		if err != nil {
			return err
		}
		if access == "" {
			return apperror.Unauthenticated()
		}
		refresh, err := c.d.Session.RefreshToken(ctx)
		if err != nil {
			return err
		}

		reg.Username = strings.TrimSpace(f.Username)
		reg.Email = strings.TrimSpace(f.Email)
		userID, err := c.d.API.Users.RegisterOAuth(ctx, reg)
		if err != nil {
			return err
		}
		if err := c.d.Session.Save(ctx, model.AuthTokens{UserID: userID, AccessToken: access, RefreshToken: refresh}); err != nil {
			return err
		}

		image := reg.Picture
		if f.Image != nil {
			if image, _, err = c.upload(ctx, api.FolderUserImages, *f.Image, model.MediaImage); err != nil {
				return err
			}
		}

		_, err = c.d.API.Users.CreateProfile(ctx, &model.Profile{
			UserID:       userID,
			Biography:    f.Biography,
			FitnessGoals: f.FitnessGoals,
			Image:        image,
			Email:        reg.Email,
		})
		if err != nil {
			return err
		}
		return c.loadCurrentUser(ctx, userID)
	})
}

// LoadCurrentUser refreshes the current user and its cached copy from the
// server.
func (c *AuthController) LoadCurrentUser(ctx context.Context) error {
	return c.run(ctx, action{name: "load current user", failure: "Failed to fetch user profile"}, func(ctx context.Context) error {
		id, err := c.userID(ctx)
		if err != nil {
			return err
		}
		return c.loadCurrentUser(ctx, id)
	})
}

// RestoreCachedUser puts the cached current user into the store without a
// request, so the landing page can greet a returning user.
func (c *AuthController) RestoreCachedUser(ctx context.Context) (bool, error) {
	u, err := c.d.Session.CachedUser(ctx)
	if err != nil || u == nil {
		return false, err
	}
	c.d.State.SetCurrentUser(u)
	return true, nil
}
