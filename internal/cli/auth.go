package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/controller"
	"github.com/sakif/skillflow/internal/model"
)

func cmdLogin(ctx context.Context, c *cmdContext, args []string) error {
	fs := c.newFlags("login")
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *username == "" {
		if *username, err = c.prompt("Username: "); err != nil {
			return err
		}
	}
	pw, err := c.password("Password: ")
	if err != nil {
		return err
	}
	return reported(c.app.Ctl.Auth.SignIn(ctx, *username, pw))
}

func cmdRegister(ctx context.Context, c *cmdContext, args []string) error {
	fs := c.newFlags("register")
	var f controller.SignUpForm
	fs.StringVar(&f.Username, "u", "", "username")
	fs.StringVar(&f.Email, "email", "", "email address")
	fs.StringVar(&f.Biography, "bio", "", "biography")
	fs.StringVar(&f.FitnessGoals, "goals", "", "skill goals")
	image := fs.String("image", "", "profile image file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if f.Password, err = c.password("Password: "); err != nil {
		return err
	}
	if f.Confirm, err = c.password("Confirm password: "); err != nil {
		return err
	}
	if f.Image, err = readOptionalSource(*image); err != nil {
		return err
	}
	return reported(c.app.Ctl.Auth.SignUp(ctx, f))
}

func cmdLogout(ctx context.Context, c *cmdContext, _ []string) error {
	return reported(c.app.Ctl.Auth.Logout(ctx))
}

// cmdWhoami prints the stored session without calling the API.
func cmdWhoami(ctx context.Context, c *cmdContext, _ []string) error {
	s := c.app.Session
	userID, err := s.UserID(ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		fmt.Fprintln(c.env.Stdout, "Not signed in.")
		return nil
	}

	fmt.Fprintf(c.env.Stdout, "user id:  %s\n", userID)
	if u, err := s.CachedUser(ctx); err == nil && u != nil {
		fmt.Fprintf(c.env.Stdout, "username: %s\n", u.Username)
	}

	access, err := s.AccessToken(ctx)
	if err != nil {
		return err
	}
	info, err := auth.Inspect(access)
	if err != nil {
		// Opaque tokens are valid too; there is just nothing to show.
		c.logger.Debug("access token is not a JWT", slog.String("error", err.Error()))
		return nil
	}
	now := time.Now()
	switch {
	case info.ExpiresAt.IsZero():
		fmt.Fprintln(c.env.Stdout, "token:    no expiry")
	case info.Expired(now):
		fmt.Fprintf(c.env.Stdout, "token:    expired at %s (run `skillflow refresh`)\n", info.ExpiresAt.Format(time.RFC3339))
	default:
		fmt.Fprintf(c.env.Stdout, "token:    expires in %s\n", info.ExpiresIn(now).Round(time.Second))
	}
	return nil
}

func cmdRefresh(ctx context.Context, c *cmdContext, _ []string) error {
	if _, err := c.app.API.Auth.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.env.Stdout, "Access token refreshed.")
	return nil
}

// cmdOAuth signs in through a provider: it prints the authorization URL and
// waits for the server to redirect the browser back to the loopback address.
func cmdOAuth(ctx context.Context, c *cmdContext, args []string) error {
	if len(args) != 1 {
		return apperror.ValidationFailed("provider", "usage: skillflow oauth <google|github>")
	}
	p, err := auth.ParseProvider(args[0])
	if err != nil {
		return err
	}

	ln, err := c.app.ListenCallback()
	if err != nil {
		return err
	}
	open := func(url string) error {
		fmt.Fprintf(c.env.Stdout, "Open this URL in your browser to sign in:\n\n  %s\n\nWaiting for the redirect on %s ...\n", url, ln.Addr())
		return nil
	}
	if err := c.app.OAuthLogin(ctx, ln, p, open); err != nil {
		return reported(err)
	}
	fmt.Fprintln(c.env.Stdout, "Successfully signed in!")
	return nil
}

// cmdOAuthFinish completes a sign-in from a redirect URL pasted by hand.
func cmdOAuthFinish(ctx context.Context, c *cmdContext, args []string) error {
	if len(args) != 1 {
		return apperror.ValidationFailed("url", "usage: skillflow oauth-finish <redirect url>")
	}
	return reported(c.app.Ctl.Auth.CompleteOAuth(ctx, args[0]))
}

func cmdOAuthProfile(ctx context.Context, c *cmdContext, args []string) error {
	fs := c.newFlags("oauth-profile")
	var reg model.OAuthRegistration
	var f controller.ProfileForm
	fs.StringVar(&reg.Provider, "provider", "", "provider name")
	fs.StringVar(&reg.ProviderID, "provider-id", "", "account id at the provider")
	fs.StringVar(&reg.Name, "name", "", "display name")
	fs.StringVar(&reg.Picture, "picture", "", "provider picture URL")
	fs.StringVar(&f.Username, "u", "", "username")
	fs.StringVar(&f.Email, "email", "", "email address")
	fs.StringVar(&f.Biography, "bio", "", "biography")
	fs.StringVar(&f.FitnessGoals, "goals", "", "skill goals")
	image := fs.String("image", "", "profile image file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if f.Image, err = readOptionalSource(*image); err != nil {
		return err
	}
	return reported(c.app.Ctl.Auth.CompleteOAuthProfile(ctx, reg, f))
}
