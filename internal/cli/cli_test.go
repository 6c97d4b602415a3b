package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillflow/internal/api/apitest"
	"github.com/sakif/skillflow/internal/config"
	"github.com/sakif/skillflow/internal/model"
)

type harness struct {
	srv *apitest.Server
	cfg *config.Config
}

// newHarness points the CLI at a fake API and a file-backed session, so a
// login persists across Run calls the way it does between real invocations.
func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer(t)
	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.API.Timeout = 5 * time.Second
	cfg.Storage.Path = filepath.Join(t.TempDir(), "storage.db")
	cfg.Log.Level = "error"
	return &harness{srv: srv, cfg: &cfg}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	env := Env{Stdin: strings.NewReader(stdin), Stdout: &out, Stderr: &errOut, Config: h.cfg}
	code = Run(context.Background(), env, args)
	return code, out.String(), errOut.String()
}

func (h *harness) login(t *testing.T, username string) model.AuthTokens {
	t.Helper()
	tokens := h.srv.AddUser(username, "secret123")
	code, out, stderr := h.run(t, "secret123\n", "login", "-u", username)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "Welcome back!")
	return tokens
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: skillflow")

	code, _, stderr = h.run(t, "", "dance")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "dance"`)
}

func TestRun_LoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)
	tokens := h.login(t, "ana")

	code, out, _ := h.run(t, "", "whoami")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "user id:  "+tokens.UserID)
	assert.Contains(t, out, "username: ana")

	code, out, _ = h.run(t, "", "logout")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Logged out successfully")

	_, out, _ = h.run(t, "", "whoami")
	assert.Contains(t, out, "Not signed in.")
}

func TestRun_LoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ana", "secret123")

	code, _, stderr := h.run(t, "nope\n", "login", "-u", "ana")
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(stderr, "error: Invalid username or password"), "reported once")
}

func TestRun_RegisterPasswordMismatch(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run(t, "abcdef12\nabcdef13\n",
		"register", "-u", "ana", "-email", "ana@example.com", "-bio", "b", "-goals", "g")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "do not match")
	assert.Empty(t, h.srv.Requests())
}

func TestRun_PostLikeComment(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ana")
	ben := h.srv.AddUser("ben", "secret123")
	post := h.srv.SeedPost(model.Post{UserID: ben.UserID, ContentDescription: "ben's lift"})

	code, out, stderr := h.run(t, "", "like", post.ID)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Liked. The post has 1 like(s).")

	code, out, _ = h.run(t, "", "like", post.ID)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Unliked. The post has 0 like(s).")

	code, _, stderr = h.run(t, "", "comment", "add", post.ID, "strong", "work")
	require.Equal(t, 0, code, stderr)
	comments := h.srv.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, "strong work", comments[0].CommentText)

	img := filepath.Join(t.TempDir(), "pr.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"), 0o600))
	code, out, stderr = h.run(t, "", "post", "create", "-text", "new PR", "-media", img, "-tags", "lifting,pr")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Post created successfully")
	assert.Len(t, h.srv.Posts(), 2)

	code, out, _ = h.run(t, "", "feed")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "ben's lift")
	assert.Contains(t, out, "ana: strong work")
	assert.Contains(t, out, "#lifting #pr")
}

func TestRun_DeleteSomeoneElsesPost(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ana")
	ben := h.srv.AddUser("ben", "secret123")
	post := h.srv.SeedPost(model.Post{UserID: ben.UserID})
	h.srv.ResetRequests()

	code, _, stderr := h.run(t, "", "post", "delete", post.ID)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "You can only delete your own posts")
	assert.Zero(t, h.srv.RequestCount("DELETE "))
}

func TestRun_Notifications(t *testing.T) {
	h := newHarness(t)
	tokens := h.login(t, "ana")
	n := h.srv.SeedNotification(model.Notification{UserID: tokens.UserID, Title: "New like", Description: "ben liked your post"})

	code, out, _ := h.run(t, "", "notifications")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "1 unread")
	assert.Contains(t, out, "New like: ben liked your post")

	code, out, _ = h.run(t, "", "notifications", "read", n.ID)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "0 unread")
}

func TestRun_ProfileUpdate(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ana")

	code, out, stderr := h.run(t, "", "profile", "update", "-bio", "climber", "-public=true")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Profile updated successfully")

	_, out, _ = h.run(t, "", "profile")
	assert.Contains(t, out, "bio:   climber")
	assert.Contains(t, out, "public profile")
}

func TestRun_ProgressLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ana")

	code, _, stderr := h.run(t, "", "progress", "create", "-name", "Go", "-desc", "generics", "-done", "3", "-total", "10")
	require.Equal(t, 0, code, stderr)
	all := h.srv.LearningProgress()
	require.Len(t, all, 1)

	code, _, stderr = h.run(t, "", "progress", "update", "-name", "Go", "-desc", "generics", "-done", "10", "-total", "10", all[0].ID)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, 10, h.srv.LearningProgress()[0].CompletedItems)

	code, _, _ = h.run(t, "", "progress", "delete", all[0].ID)
	require.Equal(t, 0, code)
	assert.Empty(t, h.srv.LearningProgress())
}

func TestRun_UnknownVerb(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ana")

	code, _, stderr := h.run(t, "", "story", "explode")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unknown action "explode"`)
}
