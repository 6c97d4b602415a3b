package controller

import (
	"context"
	"strings"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/store"
)

// SkillShareController manages skill shares and their media.
type SkillShareController struct {
	base
}

// SkillShareForm holds a skill share's text and attachment changes.
type SkillShareForm struct {
	Details string
	Add     []media.Source
	// Remove lists attachment URLs to drop on update.
	Remove []string
}

func (c *SkillShareController) OpenCreate() {
	c.d.State.OpenModal(store.ModalCreateSkillShare)
}

func (c *SkillShareController) OpenUpdate(ss model.SkillShare) {
	c.d.State.SelectSkillShare(&ss)
	c.d.State.OpenModal(store.ModalUpdateSkillShare)
}

func (c *SkillShareController) Create(ctx context.Context, f SkillShareForm) error {
	a := action{
		name:    "create skill share",
		modal:   store.ModalCreateSkillShare,
		success: "Skill Share created successfully!",
		failure: "Failed to create Skill Share. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("mealDetails", f.Details, "Please enter Descriptions"); err != nil {
			return err
		}
		if len(f.Add) == 0 {
			return apperror.ValidationFailed("mediaUrls", "Please upload at least one media file")
		}
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}

		sel := media.NewSelection(c.d.Prober)
		if _, err := sel.Attach(ctx, c.d.Uploader, api.FolderPosts, f.Add...); err != nil {
			return err
		}

		urls, types := sel.URLs()
		_, err = c.d.API.SkillShares.Create(ctx, &model.SkillShare{
			UserID:      userID,
			MealDetails: strings.TrimSpace(f.Details),
			MediaURLs:   urls,
			MediaTypes:  types,
		})
		if err != nil {
			return err
		}
		return c.refreshSkillShares(ctx)
	})
}

// Update applies removals first, so freed slots count toward the limit for
// new files.
func (c *SkillShareController) Update(ctx context.Context, ss model.SkillShare, f SkillShareForm) error {
	a := action{
		name:    "update skill share",
		modal:   store.ModalUpdateSkillShare,
		success: "Skill Share updated successfully!",
		failure: "Failed to update Skill Share. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("mealDetails", f.Details, "Please enter Descriptions"); err != nil {
			return err
		}
		if err := c.requireOwner(ctx, ss.UserID, "You can only edit your own skill shares"); err != nil {
			return err
		}

		sel := media.NewSelection(c.d.Prober, media.ItemsFromURLs(ss.MediaURLs, ss.MediaTypes)...)
		for _, it := range sel.Items() {
			for _, u := range f.Remove {
				if it.URL == u {
					sel.Remove(it.UID)
				}
			}
		}
		if _, err := sel.Attach(ctx, c.d.Uploader, api.FolderPosts, f.Add...); err != nil {
			return err
		}
		if sel.Len() == 0 {
			return apperror.ValidationFailed("mediaUrls", "Please upload at least one media file")
		}

		ss.MealDetails = strings.TrimSpace(f.Details)
		ss.MediaURLs, ss.MediaTypes = sel.URLs()
		if _, err := c.d.API.SkillShares.Update(ctx, ss.ID, &ss); err != nil {
			return err
		}
		c.d.State.SelectSkillShare(nil)
		return c.refreshSkillShares(ctx)
	})
}

func (c *SkillShareController) Delete(ctx context.Context, ss model.SkillShare) error {
	a := action{
		name:    "delete skill share",
		success: "Skill Share deleted successfully",
		failure: "Failed to delete Skill Share. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := c.requireOwner(ctx, ss.UserID, "You can only delete your own skill shares"); err != nil {
			return err
		}
		if err := c.d.API.SkillShares.Delete(ctx, ss.ID); err != nil {
			return err
		}
		return c.refreshSkillShares(ctx)
	})
}
