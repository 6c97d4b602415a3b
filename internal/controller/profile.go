package controller

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/store"
)

// ProfileController edits the current user's profile and opens other
// users' profiles.
type ProfileController struct {
	base
}

// ProfileUpdate holds profile changes. Biography and FitnessGoals are
// required; a nil Visible or Image keeps the current value.
type ProfileUpdate struct {
	Biography    string
	FitnessGoals string
	Visible      *bool
	Image        *media.Source
}

func (c *ProfileController) Open() {
	c.d.State.OpenModal(store.ModalProfile)
}

// OpenFriend shows another user's profile.
func (c *ProfileController) OpenFriend(u model.User) {
	c.d.State.SelectUser(&u)
	c.d.State.OpenModal(store.ModalFriendProfile)
}

func (c *ProfileController) Update(ctx context.Context, f ProfileUpdate) error {
	a := action{
		name:    "update profile",
		modal:   store.ModalProfile,
		success: "Profile updated successfully",
		failure: "Profile update failed",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("biography", f.Biography, "Please enter your biography"); err != nil {
			return err
		}
		if err := required("fitnessGoals", f.FitnessGoals, "Please enter your skill goals"); err != nil {
			return err
		}

		u, ok := c.d.State.CurrentUser()
		if !ok {
			return apperror.Unauthenticated()
		}
		if u.ProfileID == "" {
			return apperror.NotFound("profile", u.ID)
		}

		u.Biography = strings.TrimSpace(f.Biography)
		u.FitnessGoals = strings.TrimSpace(f.FitnessGoals)
		if f.Visible != nil {
			u.ProfileVisibility = *f.Visible
		}
		if f.Image != nil {
			url, _, err := c.upload(ctx, api.FolderUserImages, *f.Image, model.MediaImage)
			if err != nil {
				return err
			}
			u.Image = url
		}

		if _, err := c.d.API.Users.UpdateProfile(ctx, u); err != nil {
			return err
		}
		c.d.State.SetCurrentUser(&u)
		if err := c.d.Session.CacheUser(ctx, u); err != nil {
			c.d.Logger.Warn("caching current user", slog.String("error", err.Error()))
		}
		return nil
	})
}
