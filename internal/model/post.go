package model

import "time"

// Media types as recorded on posts and skill shares: the top-level part of
// the uploaded file's MIME type.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

type Post struct {
	ID                 string    `json:"id,omitempty"`
	UserID             string    `json:"userId"`
	ContentDescription string    `json:"contentDescription"`
	MediaLink          string    `json:"mediaLink,omitempty"`
	MediaType          string    `json:"mediaType,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	Timestamp          time.Time `json:"timestamp,omitzero"`
}

type Comment struct {
	ID          string    `json:"id,omitempty"`
	PostID      string    `json:"postId"`
	UserID      string    `json:"userId"`
	CommentText string    `json:"commentText"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Like exists for as long as the user likes the post; unliking deletes it.
type Like struct {
	ID     string `json:"id,omitempty"`
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

type Notification struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Read        bool   `json:"read"`
}
