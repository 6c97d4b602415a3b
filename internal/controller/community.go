package controller

import (
	"context"
	"log/slog"

	"github.com/sakif/skillflow/internal/model"
)

// CommunityController loads the community page.
type CommunityController struct {
	base
}

// Load fills the store in page order: the current user (when a session
// exists), users, stories, learning progress, skill shares, then posts.
// It stops at the first failure.
func (c *CommunityController) Load(ctx context.Context) error {
	return c.run(ctx, action{name: "load community"}, func(ctx context.Context) error {
		if id, _ := c.d.Session.UserID(ctx); id != "" {
			if err := c.loadCurrentUser(ctx, id); err != nil {
				return err
			}
		}
		for _, load := range []func(context.Context) error{
			c.refreshUsers,
			c.refreshStories,
			c.refreshLearningProgress,
			c.refreshSkillShares,
			c.refreshPosts,
		} {
			if err := load(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPost fetches the likes and comments of one post.
func (c *CommunityController) LoadPost(ctx context.Context, postID string) error {
	return c.run(ctx, action{name: "load post"}, func(ctx context.Context) error {
		if err := c.refreshLikes(ctx, postID); err != nil {
			return err
		}
		return c.refreshComments(ctx, postID)
	})
}

// --- re-fetch helpers shared by every controller ---

func (b *base) loadCurrentUser(ctx context.Context, userID string) error {
	u, err := b.d.API.Users.Current(ctx, userID)
	if err != nil {
		return err
	}
	b.d.State.SetCurrentUser(u)
	if err := b.d.Session.CacheUser(ctx, *u); err != nil {
		b.d.Logger.Warn("caching current user", slog.String("error", err.Error()))
	}
	return nil
}

// refreshUsers loads every profile and names it from its account. A profile
// whose account cannot be loaded is kept without a username.
func (b *base) refreshUsers(ctx context.Context) error {
	profiles, err := b.d.API.Users.Profiles(ctx)
	if err != nil {
		return err
	}

	users := make([]model.User, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		acc, err := b.d.API.Users.Account(ctx, p.UserID)
		if err != nil {
			b.d.Logger.Debug("loading account for profile", slog.String("userID", p.UserID), slog.String("error", err.Error()))
			acc = &model.Account{ID: p.UserID}
		}
		users = append(users, model.MergeUser(*acc, p))
	}
	b.d.State.SetUsers(users)
	return nil
}

func (b *base) refreshPosts(ctx context.Context) error {
	posts, err := b.d.API.Posts.List(ctx)
	if err != nil {
		return err
	}
	b.d.State.SetPosts(posts)
	return nil
}

func (b *base) refreshStories(ctx context.Context) error {
	stories, err := b.d.API.Stories.List(ctx)
	if err != nil {
		return err
	}
	b.d.State.SetStories(stories)
	return nil
}

func (b *base) refreshLearningProgress(ctx context.Context) error {
	lp, err := b.d.API.LearningProgress.List(ctx)
	if err != nil {
		return err
	}
	b.d.State.SetLearningProgress(lp)
	return nil
}

func (b *base) refreshSkillShares(ctx context.Context) error {
	ss, err := b.d.API.SkillShares.List(ctx)
	if err != nil {
		return err
	}
	b.d.State.SetSkillShares(ss)
	return nil
}

func (b *base) refreshLikes(ctx context.Context, postID string) error {
	likes, err := b.d.API.Likes.ByPost(ctx, postID)
	if err != nil {
		return err
	}
	b.d.State.SetLikes(postID, likes)
	return nil
}

func (b *base) refreshComments(ctx context.Context, postID string) error {
	comments, err := b.d.API.Comments.ByPost(ctx, postID)
	if err != nil {
		return err
	}
	b.d.State.SetComments(postID, comments)
	return nil
}

// refreshNotifications keeps only the notifications addressed to userID.
func (b *base) refreshNotifications(ctx context.Context, userID string) error {
	all, err := b.d.API.Notifications.List(ctx)
	if err != nil {
		return err
	}
	mine := make([]model.Notification, 0, len(all))
	for _, n := range all {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	b.d.State.SetNotifications(mine)
	return nil
}
