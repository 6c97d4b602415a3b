// Package app wires the client together: local storage, session, API client,
// uploader, store, controllers and renderer.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  -> sqlite.DB (storage.KV) -> auth.Session
//	  -> api.Client (bearer transport reads the session on every request)
//	  -> api.Uploader (the API's upload endpoint, or S3)
//	  -> controller.Controllers (write to store.State)
//	  -> view.Renderer (reads store.State)
//
// This is the composition root: nothing below it constructs its own
// dependencies.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/config"
	"github.com/sakif/skillflow/internal/controller"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/storage/sqlite"
	"github.com/sakif/skillflow/internal/store"
	"github.com/sakif/skillflow/internal/view"
)

// App owns the local database; call Close when done.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sqlite.DB

	Session  *auth.Session
	API      *api.Client
	State    *store.State
	Ctl      *controller.Controllers
	Renderer *view.Renderer
}

// New opens local storage and builds every component from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, notify controller.Notifier) (*App, error) {
	if cfg.Storage.Path != ":memory:" {
		dir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
		}
	}

	db, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}

	session := auth.NewSession(db)
	client, err := api.NewClient(cfg.API.BaseURL, session, logger, api.Options{Timeout: cfg.API.Timeout})
	if err != nil {
		db.Close()
		return nil, err
	}

	uploader, err := newUploader(ctx, cfg, client)
	if err != nil {
		db.Close()
		return nil, err
	}

	state := store.New()
	a := &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		Session:  session,
		API:      client,
		State:    state,
		Renderer: view.NewRenderer(),
	}
	a.Ctl = controller.New(controller.Deps{
		API:      client,
		Session:  session,
		State:    state,
		Uploader: uploader,
		Prober:   media.VideoProber{},
		Notify:   notify,
		Logger:   logger,
	})

	logger.Debug("client ready",
		slog.String("api", cfg.API.BaseURL),
		slog.String("storage", cfg.Storage.Path),
		slog.String("upload", cfg.Upload.Backend),
	)
	return a, nil
}

func newUploader(ctx context.Context, cfg *config.Config, client *api.Client) (api.Uploader, error) {
	switch cfg.Upload.Backend {
	case config.UploadS3:
		up, err := api.NewS3Uploader(ctx, cfg.Upload.S3)
		if err != nil {
			return nil, fmt.Errorf("creating s3 uploader: %w", err)
		}
		return up, nil
	default:
		return client.Uploader(), nil
	}
}

// Close releases local storage.
func (a *App) Close() error {
	return a.db.Close()
}

// ListenCallback opens the loopback listener the provider redirect lands on.
func (a *App) ListenCallback() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.cfg.OAuth.CallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", a.cfg.OAuth.CallbackAddr, err)
	}
	return ln, nil
}

// OAuthLogin runs a provider sign-in: it hands the authorization URL to
// open, waits on ln for the server's redirect, then loads the current user.
// ln is closed on return.
func (a *App) OAuthLogin(ctx context.Context, ln net.Listener, p auth.Provider, open func(url string) error) error {
	authURL, err := auth.AuthorizationURL(a.cfg.API.BaseURL, p)
	if err != nil {
		ln.Close()
		return err
	}

	cb := auth.NewCallbackServer(a.Session, a.logger)
	done := make(chan struct{})
	var tokensErr error
	go func() {
		defer close(done)
		_, tokensErr = cb.Wait(ctx, ln)
	}()

	if err := open(authURL); err != nil {
		ln.Close()
		<-done
		return fmt.Errorf("opening authorization URL: %w", err)
	}
	<-done
	if tokensErr != nil {
		if errors.Is(tokensErr, context.Canceled) {
			return fmt.Errorf("sign-in cancelled: %w", tokensErr)
		}
		return tokensErr
	}

	return a.Ctl.Auth.LoadCurrentUser(ctx)
}

// Page loads what urlPath needs into the store and renders it.
func (a *App) Page(ctx context.Context, w io.Writer, urlPath string) error {
	switch view.Resolve(urlPath) {
	case view.Landing:
		if _, err := a.Ctl.Auth.RestoreCachedUser(ctx); err != nil {
			a.logger.Warn("restoring cached user", slog.String("error", err.Error()))
		}
	case view.Community:
		if err := a.Ctl.Community.Load(ctx); err != nil {
			return err
		}
		if a.Session.IsAuthenticated(ctx) {
			if err := a.Ctl.Notifications.Load(ctx); err != nil {
				return err
			}
		}
		for _, p := range a.State.Posts() {
			if err := a.Ctl.Community.LoadPost(ctx, p.ID); err != nil {
				return err
			}
		}
	}
	return a.Renderer.Render(w, urlPath, a.State)
}
