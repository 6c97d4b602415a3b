package controller

import (
	"context"
	"strings"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/store"
)

// StoryController manages workout stories.
type StoryController struct {
	base
}

// StoryForm holds the editable fields of a story. Image replaces the
// current one when set.
type StoryForm struct {
	Title        string
	Description  string
	ExerciseType string
	TimeDuration int // minutes
	Intensity    string
	Image        *media.Source
}

func (f StoryForm) apply(st *model.Story) {
	st.Title = strings.TrimSpace(f.Title)
	st.Description = f.Description
	st.ExerciseType = f.ExerciseType
	st.TimeDuration = max(f.TimeDuration, 0)
	st.Intensity = f.Intensity
}

func (c *StoryController) OpenCreate() {
	c.d.State.OpenModal(store.ModalCreateStory)
}

// Open shows st in the story dialog, where its owner can edit or delete it.
func (c *StoryController) Open(st model.Story) {
	c.d.State.SelectStory(&st)
	c.d.State.OpenModal(store.ModalStory)
}

func (c *StoryController) Create(ctx context.Context, f StoryForm) error {
	a := action{
		name:    "create story",
		modal:   store.ModalCreateStory,
		success: "Story created successfully",
		failure: "Failed to create story. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("title", f.Title, "Please input a title"); err != nil {
			return err
		}
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}

		st := model.Story{UserID: userID}
		f.apply(&st)
		if f.Image != nil {
			if st.Image, _, err = c.upload(ctx, api.FolderStories, *f.Image, model.MediaImage); err != nil {
				return err
			}
		}
		if _, err := c.d.API.Stories.Create(ctx, &st); err != nil {
			return err
		}
		return c.refreshStories(ctx)
	})
}

func (c *StoryController) Update(ctx context.Context, st model.Story, f StoryForm) error {
	a := action{
		name:    "update story",
		modal:   store.ModalStory,
		success: "Story updated successfully",
		failure: "Error updating story",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("title", f.Title, "Please input a title"); err != nil {
			return err
		}
		if err := c.requireOwner(ctx, st.UserID, "You can only edit your own stories"); err != nil {
			return err
		}

		f.apply(&st)
		if f.Image != nil {
			url, _, err := c.upload(ctx, api.FolderStories, *f.Image, model.MediaImage)
			if err != nil {
				return err
			}
			st.Image = url
		}
		if _, err := c.d.API.Stories.Update(ctx, st.ID, &st); err != nil {
			return err
		}
		c.d.State.SelectStory(nil)
		return c.refreshStories(ctx)
	})
}

func (c *StoryController) Delete(ctx context.Context, st model.Story) error {
	a := action{
		name:    "delete story",
		modal:   store.ModalStory,
		success: "Story deleted successfully",
		failure: "Failed to delete story",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := c.requireOwner(ctx, st.UserID, "You can only delete your own stories"); err != nil {
			return err
		}
		if err := c.d.API.Stories.Delete(ctx, st.ID); err != nil {
			return err
		}
		c.d.State.SelectStory(nil)
		return c.refreshStories(ctx)
	})
}
