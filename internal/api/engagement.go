package api

import (
	"context"
	"net/http"

	"github.com/sakif/skillflow/internal/model"
)

type CommentService struct {
	c *Client
}

func (s *CommentService) ByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	var out []model.Comment
	if err := s.c.call(ctx, "load comments", http.MethodGet, nil, &out, pathComments, "post", postID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CommentService) Create(ctx context.Context, cm *model.Comment) (*model.Comment, error) {
	var out model.Comment
	if err := s.c.call(ctx, "add comment", http.MethodPost, cm, &out, pathComments); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CommentService) Update(ctx context.Context, id string, cm *model.Comment) (*model.Comment, error) {
	var out model.Comment
	if err := s.c.call(ctx, "update comment", http.MethodPut, cm, &out, pathComments, id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	return s.c.call(ctx, "delete comment", http.MethodDelete, nil, nil, pathComments, id)
}

type LikeService struct {
	c *Client
}

func (s *LikeService) ByPost(ctx context.Context, postID string) ([]model.Like, error) {
	var out []model.Like
	if err := s.c.call(ctx, "load likes", http.MethodGet, nil, &out, pathLikes, "post", postID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LikeService) Create(ctx context.Context, l *model.Like) (*model.Like, error) {
	var out model.Like
	if err := s.c.call(ctx, "like post", http.MethodPost, l, &out, pathLikes); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *LikeService) Delete(ctx context.Context, id string) error {
	return s.c.call(ctx, "unlike post", http.MethodDelete, nil, nil, pathLikes, id)
}

type NotificationService struct {
	c *Client
}

// List returns every notification the server holds; filtering to the
// recipient happens on the client.
func (s *NotificationService) List(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	if err := s.c.call(ctx, "load notifications", http.MethodGet, nil, &out, pathNotifications); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *NotificationService) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	var out model.Notification
	if err := s.c.call(ctx, "send notification", http.MethodPost, n, &out, pathNotifications); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.c.call(ctx, "mark notification as read", http.MethodPut, nil, nil, pathNotifications, id, "markAsRead")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.c.call(ctx, "mark notifications as read", http.MethodPut, nil, nil, pathNotifications, "user", userID, "markAllAsRead")
}
