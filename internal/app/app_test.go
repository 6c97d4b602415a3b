package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillflow/internal/api/apitest"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/config"
	"github.com/sakif/skillflow/internal/controller"
	"github.com/sakif/skillflow/internal/model"
)

func newTestApp(t *testing.T) (*App, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer(t)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.API.Timeout = 5 * time.Second
	cfg.Storage.Path = ":memory:"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), &cfg, logger, controller.LogNotifier{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, srv
}

func TestApp_CommunityPage(t *testing.T) {
	ctx := context.Background()
	a, srv := newTestApp(t)

	srv.AddUser("ben", "secret123")
	require.NoError(t, a.Ctl.Auth.SignIn(ctx, "ben", "secret123"))

	me, ok := a.State.CurrentUser()
	require.True(t, ok)
	post := srv.SeedPost(model.Post{UserID: me.ID, ContentDescription: "hill sprints"})
	srv.SeedComment(model.Comment{PostID: post.ID, UserID: me.ID, CommentText: "ouch"})
	srv.SeedNotification(model.Notification{UserID: me.ID, Title: "Welcome", Description: "hi"})

	var buf bytes.Buffer
	require.NoError(t, a.Page(ctx, &buf, "/community"))

	out := buf.String()
	assert.Contains(t, out, "Signed in as ben [1 unread]")
	assert.Contains(t, out, "hill sprints")
	assert.Contains(t, out, "ben: ouch")
}

func TestApp_LandingUsesCachedUser(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t)
	require.NoError(t, a.Session.CacheUser(ctx, model.User{ID: "u1", Username: "ana"}))

	var buf bytes.Buffer
	require.NoError(t, a.Page(ctx, &buf, "/"))
	assert.Contains(t, buf.String(), "Welcome back, ana!")
}

func TestApp_OAuthLogin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, srv := newTestApp(t)
	tokens := srv.AddUser("octo", "unused-password")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	// Stands in for the browser: the server finishes the provider login and
	// redirects back to the loopback listener.
	open := func(authURL string) error {
		assert.Equal(t, srv.URL+"/oauth2/authorization/github", authURL)
		q := url.Values{
			"access_token":  {tokens.AccessToken},
			"refresh_token": {tokens.RefreshToken},
			"user_id":       {tokens.UserID},
		}
		go func() {
			resp, err := http.Get("http://" + ln.Addr().String() + "/?" + q.Encode())
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}

	require.NoError(t, a.OAuthLogin(ctx, ln, auth.GitHub, open))

	u, ok := a.State.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "octo", u.Username)
	assert.True(t, a.Session.IsAuthenticated(ctx))
}

func TestApp_OAuthLoginCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a, _ := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = a.OAuthLogin(ctx, ln, auth.Google, func(string) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, a.Session.IsAuthenticated(context.Background()))
}

func TestNew_S3Backend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = ":memory:"
	cfg.Upload.Backend = config.UploadS3
	cfg.Upload.S3 = config.S3Config{Bucket: "media", Region: "us-east-1", AccessKey: "k", SecretKey: "s", Endpoint: "http://127.0.0.1:9000"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), &cfg, logger, controller.LogNotifier{Logger: logger})
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.Ctl)
}
