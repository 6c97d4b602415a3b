package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/model"
)

// EngagementController handles likes and comments on posts.
type EngagementController struct {
	base
}

// Liked reports whether userID has a like among likes.
func Liked(likes []model.Like, userID string) bool {
	return findLike(likes, userID) != nil
}

func findLike(likes []model.Like, userID string) *model.Like {
	for i := range likes {
		if likes[i].UserID == userID {
			return &likes[i]
		}
	}
	return nil
}

// ToggleLike fetches p's likes, likes p when the current user has not liked
// it yet and removes their like otherwise, then re-fetches the post's likes.
func (c *EngagementController) ToggleLike(ctx context.Context, p model.Post) error {
	return c.run(ctx, action{name: "toggle like"}, func(ctx context.Context) error {
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}
		if err := c.refreshLikes(ctx, p.ID); err != nil {
			return err
		}

		if mine := findLike(c.d.State.Likes(p.ID), userID); mine != nil {
			if err := c.d.API.Likes.Delete(ctx, mine.ID); err != nil {
				return err
			}
		} else {
			if _, err := c.d.API.Likes.Create(ctx, &model.Like{PostID: p.ID, UserID: userID}); err != nil {
				return err
			}
			c.notifyOwner(ctx, p, userID, "New like", "%s liked your post")
		}
		return c.refreshLikes(ctx, p.ID)
	})
}

// AddComment posts text on p and re-fetches its comments.
func (c *EngagementController) AddComment(ctx context.Context, p model.Post, text string) error {
	return c.run(ctx, action{name: "add comment", failure: "Failed to add comment. Please try again."}, func(ctx context.Context) error {
		if err := required("commentText", text, "Please enter a comment"); err != nil {
			return err
		}
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}

		_, err = c.d.API.Comments.Create(ctx, &model.Comment{PostID: p.ID, UserID: userID, CommentText: strings.TrimSpace(text)})
		if err != nil {
			return err
		}
		c.notifyOwner(ctx, p, userID, "New comment", "%s commented on your post")
		return c.refreshComments(ctx, p.ID)
	})
}

// CanModifyComment reports whether userID may edit or delete cm.
func CanModifyComment(cm model.Comment, userID string) bool {
	return userID != "" && cm.UserID == userID
}

func (c *EngagementController) UpdateComment(ctx context.Context, cm model.Comment, text string) error {
	a := action{name: "update comment", success: "Comment updated", failure: "Failed to update comment. Please try again."}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := required("commentText", text, "Please enter a comment"); err != nil {
			return err
		}
		if err := c.requireCommentOwner(ctx, cm); err != nil {
			return err
		}
		cm.CommentText = strings.TrimSpace(text)
		if _, err := c.d.API.Comments.Update(ctx, cm.ID, &cm); err != nil {
			return err
		}
		return c.refreshComments(ctx, cm.PostID)
	})
}

func (c *EngagementController) DeleteComment(ctx context.Context, cm model.Comment) error {
	a := action{name: "delete comment", success: "Comment deleted", failure: "Failed to delete comment. Please try again."}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := c.requireCommentOwner(ctx, cm); err != nil {
			return err
		}
		if err := c.d.API.Comments.Delete(ctx, cm.ID); err != nil {
			return err
		}
		return c.refreshComments(ctx, cm.PostID)
	})
}

func (c *EngagementController) requireCommentOwner(ctx context.Context, cm model.Comment) error {
	userID, err := c.userID(ctx)
	if err != nil {
		return err
	}
	if !CanModifyComment(cm, userID) {
		return apperror.Forbidden("You can only change your own comments")
	}
	return nil
}

// notifyOwner tells the post owner about activity by someone else. Failures
// are logged only.
func (c *EngagementController) notifyOwner(ctx context.Context, p model.Post, actorID, title, format string) {
	if p.UserID == "" || p.UserID == actorID {
		return
	}

	name := "Someone"
	if u, ok := c.d.State.CurrentUser(); ok && u.Username != "" {
		name = u.Username
	}

	_, err := c.d.API.Notifications.Create(ctx, &model.Notification{
		UserID:      p.UserID,
		Title:       title,
		Description: fmt.Sprintf(format, name),
	})
	if err != nil {
		c.d.Logger.Warn("notifying post owner", slog.String("postID", p.ID), slog.String("error", err.Error()))
	}
}
