// Package api wraps the SkillFlow HTTP API.
//
// THE SERVICE CONTRACT:
// Every method here does the same four things and nothing else:
//
//  1. build the URL from the configured base and the resource path,
//  2. attach "Authorization: Bearer <accessToken>" read from storage at call
//     time (through an oauth2.TokenSource over the session),
//  3. issue exactly one HTTP request,
//  4. decode the JSON body, or return an apperror.ErrRequest error for any
//     transport failure or non-2xx status.
//
// There is no retry, no backoff and no de-duplication. An expired token is
// an ordinary failed request; callers decide whether to refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/httplog"
	"github.com/sakif/skillflow/internal/model"
)

// Resource paths under /api. The casing matches the server routes.
const (
	pathPosts            = "posts"
	pathComments         = "comments"
	pathLikes            = "likes"
	pathLearningProgress = "LearningProgresss"
	pathSkillShares      = "SkillShares"
	pathStories          = "workoutStatusUpdates"
	pathNotifications    = "notifications"
	pathUsers            = "users"
	pathUserProfiles     = "userProfiles"
	pathAuth             = "auth"
	pathUpload           = "files/upload"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// Client is the entry point to every service wrapper.
type Client struct {
	baseURL *url.URL
	authed  *http.Client
	anon    *http.Client
	session *auth.Session
	logger  *slog.Logger

	Auth             *AuthService
	Users            *UserService
	Posts            *Resource[model.Post]
	Comments         *CommentService
	Likes            *LikeService
	LearningProgress *UserResource[model.LearningProgress]
	SkillShares      *UserResource[model.SkillShare]
	Stories          *UserResource[model.Story]
	Notifications    *NotificationService
}

// Options tweak NewClient. The zero value is usable.
type Options struct {
	Timeout time.Duration
	// Transport is the innermost RoundTripper; tests point it at httptest.
	Transport http.RoundTripper
}

// NewClient builds a client for the API at baseURL ("http://localhost:8080").
func NewClient(baseURL string, session *auth.Session, logger *slog.Logger, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q", baseURL)
	}

	logged := &httplog.Transport{Base: opts.Transport, Logger: logger}

	c := &Client{
		baseURL: u,
		session: session,
		logger:  logger,
		anon: &http.Client{
			Timeout:   opts.Timeout,
			Transport: logged,
		},
		authed: &http.Client{
			Timeout: opts.Timeout,
			Transport: &oauth2.Transport{
				Source: session.TokenSource(context.Background()),
				Base:   logged,
			},
		},
	}

	c.Auth = &AuthService{c: c}
	c.Users = &UserService{c: c}
	c.Posts = &Resource[model.Post]{c: c, path: pathPosts, name: "post", plural: "posts"}
	c.Comments = &CommentService{c: c}
	c.Likes = &LikeService{c: c}
	c.LearningProgress = newUserResource[model.LearningProgress](c, pathLearningProgress, "learning progress", "learning progress")
	c.SkillShares = newUserResource[model.SkillShare](c, pathSkillShares, "skill share", "skill shares")
	c.Stories = newUserResource[model.Story](c, pathStories, "story", "stories")
	c.Notifications = &NotificationService{c: c}
	return c, nil
}

// Session returns the session the client reads its bearer token from.
func (c *Client) Session() *auth.Session {
	return c.session
}

// endpoint joins /api and the escaped segments onto the base URL.
func (c *Client) endpoint(segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, "api")
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return c.baseURL.JoinPath(parts...).String()
}

// call issues one authenticated JSON request.
func (c *Client) call(ctx context.Context, op, method string, body, out any, segments ...string) error {
	return c.send(ctx, c.authed, op, method, body, out, segments...)
}

// callAnon issues one request without a bearer token.
func (c *Client) callAnon(ctx context.Context, op, method string, body, out any, segments ...string) error {
	return c.send(ctx, c.anon, op, method, body, out, segments...)
}

func (c *Client) send(ctx context.Context, hc *http.Client, op, method string, body, out any, segments ...string) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encoding %s request: %w", op, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(segments...), r)
	if err != nil {
		return apperror.RequestFailed(op, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(hc, req, op, out)
}

// do runs req and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(hc *http.Client, req *http.Request, op string, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return apperror.RequestFailed(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperror.RequestFailed(op, resp.StatusCode, readErrorBody(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return apperror.RequestFailed(op, resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// serverError is the body the API sends alongside a failed status, when it
// sends one at all.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func readErrorBody(r io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil
	}
	var se serverError
	if json.Unmarshal(raw, &se) == nil && se.Message != "" {
		return fmt.Errorf("server: %s", se.Message)
	}
	return fmt.Errorf("server: %s", text)
}
