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

// PostController creates, edits and deletes posts.
type PostController struct {
	base
}

// PostForm is the create/update post form. Media is required on create and
// replaces the current attachment on update.
type PostForm struct {
	Description string
	Media       *media.Source
	Tags        []string
}

func (c *PostController) OpenCreate() {
	c.d.State.OpenModal(store.ModalCreatePost)
}

// OpenUpdate selects p and opens the edit dialog.
func (c *PostController) OpenUpdate(p model.Post) {
	c.d.State.SelectPost(&p)
	c.d.State.OpenModal(store.ModalUpdatePost)
}

func (c *PostController) Create(ctx context.Context, f PostForm) error {
	a := action{
		name:    "create post",
		modal:   store.ModalCreatePost,
		success: "Post created successfully",
		failure: "Failed to create post. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("contentDescription", f.Description, "Please enter content description"); err != nil {
			return err
		}
		if f.Media == nil {
			return apperror.ValidationFailed("mediaLink", "Please upload an image or video")
		}
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}

		url, kind, err := c.upload(ctx, api.FolderPosts, *f.Media)
		if err != nil {
			return err
		}

		_, err = c.d.API.Posts.Create(ctx, &model.Post{
			UserID:             userID,
			ContentDescription: strings.TrimSpace(f.Description),
			MediaLink:          url,
			MediaType:          kind,
			Tags:               cleanTags(f.Tags),
		})
		if err != nil {
			return err
		}
		return c.refreshPosts(ctx)
	})
}

// Update rewrites the description and tags of p, and its media when a new
// file is given.
func (c *PostController) Update(ctx context.Context, p model.Post, f PostForm) error {
	a := action{
		name:    "update post",
		modal:   store.ModalUpdatePost,
		success: "Post updated successfully",
		failure: "Failed to update post. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("contentDescription", f.Description, "Please enter content description"); err != nil {
			return err
		}
		if err := c.requireOwner(ctx, p.UserID, "You can only edit your own posts"); err != nil {
			return err
		}

		p.ContentDescription = strings.TrimSpace(f.Description)
		if f.Tags != nil {
			p.Tags = cleanTags(f.Tags)
		}
		if f.Media != nil {
			url, kind, err := c.upload(ctx, api.FolderPosts, *f.Media)
			if err != nil {
				return err
			}
			p.MediaLink, p.MediaType = url, kind
		}

		if _, err := c.d.API.Posts.Update(ctx, p.ID, &p); err != nil {
			return err
		}
		c.d.State.SelectPost(nil)
		return c.refreshPosts(ctx)
	})
}

func (c *PostController) Delete(ctx context.Context, p model.Post) error {
	a := action{
		name:    "delete post",
		success: "Post deleted successfully",
		failure: "Failed to delete post. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := c.requireOwner(ctx, p.UserID, "You can only delete your own posts"); err != nil {
			return err
		}
		if err := c.d.API.Posts.Delete(ctx, p.ID); err != nil {
			return err
		}
		return c.refreshPosts(ctx)
	})
}

// requireOwner fails with ErrForbidden unless ownerID is the signed-in user.
func (b *base) requireOwner(ctx context.Context, ownerID, msg string) error {
	userID, err := b.userID(ctx)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return apperror.Forbidden(msg)
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
