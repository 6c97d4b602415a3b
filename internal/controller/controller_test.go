package controller_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/api/apitest"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/controller"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/media/mediatest"
	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/storage"
	"github.com/sakif/skillflow/internal/store"
)

// notices records what the user would have seen.
type notices struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *notices) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *notices) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *notices) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

func (n *notices) lastSuccess() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.successes) == 0 {
		return ""
	}
	return n.successes[len(n.successes)-1]
}

type env struct {
	srv     *apitest.Server
	client  *api.Client
	session *auth.Session
	kv      *storage.Memory
	state   *store.State
	notes   *notices
	ctl     *controller.Controllers
}

func newEnv(t *testing.T) *env {
	t.Helper()

	srv := apitest.NewServer(t)
	kv := storage.NewMemory()
	session := auth.NewSession(kv)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := api.NewClient(srv.URL, session, logger, api.Options{Timeout: 5 * time.Second})
	require.NoError(t, err)

	e := &env{
		srv:     srv,
		client:  client,
		session: session,
		kv:      kv,
		state:   store.New(),
		notes:   &notices{},
	}
	e.ctl = controller.New(controller.Deps{
		API:      client,
		Session:  session,
		State:    e.state,
		Uploader: client.Uploader(),
		Prober:   media.VideoProber{},
		Notify:   e.notes,
		Logger:   logger,
	})
	return e
}

// signIn creates username on the server, stores its session and loads it
// as the current user. Recorded requests are reset afterwards.
func (e *env) signIn(t *testing.T, username string) model.AuthTokens {
	t.Helper()
	tokens := e.srv.AddUser(username, "secret123")
	require.NoError(t, e.session.Save(context.Background(), tokens))
	require.NoError(t, e.ctl.Auth.LoadCurrentUser(context.Background()))
	e.srv.ResetRequests()
	return tokens
}

// otherUser creates an account that is not signed in.
func (e *env) otherUser(username string) model.AuthTokens {
	return e.srv.AddUser(username, "secret123")
}

var (
	pngData = mediatest.PNG
	mp4Data = mediatest.MP4
)

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}
