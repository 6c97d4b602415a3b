package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/skillflow/internal/httplog"
	"github.com/sakif/skillflow/internal/model"
)

// CallbackServer receives the server's post-login redirect on a loopback
// address, stores the tokens in the session and hands them to Wait.
//
// FLOW:
//  1. The CLI opens AuthorizationURL in the browser.
//  2. The user signs in with the provider; the server finishes the exchange.
//  3. The server redirects the browser to this listener with the tokens in
//     the query string.
//  4. The handler saves them and answers the browser with a plain page.
type CallbackServer struct {
	router  chi.Router
	session *Session
	logger  *slog.Logger
	results chan callbackOutcome
}

type callbackOutcome struct {
	tokens model.AuthTokens
	err    error
}

// NewCallbackServer builds the loopback handler.
func NewCallbackServer(session *Session, logger *slog.Logger) *CallbackServer {
	s := &CallbackServer{
		router:  chi.NewRouter(),
		session: session,
		logger:  logger,
		results: make(chan callbackOutcome, 1),
	}
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(httplog.Middleware(logger))
	s.router.Get("/*", s.handleCallback)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *CallbackServer) Handler() http.Handler {
	return s.router
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	// Browsers ask for this on their own; it is not the redirect.
	if r.URL.Path == "/favicon.ico" {
		http.NotFound(w, r)
		return
	}

	res, err := ParseCallback(r.URL.String())
	if err != nil {
		s.logger.Warn("oauth callback rejected", slog.String("error", err.Error()))
		http.Error(w, "Sign-in failed. You can close this window and try again.", http.StatusBadRequest)
		s.deliver(callbackOutcome{err: err})
		return
	}

	if err := s.session.Save(r.Context(), res.Tokens); err != nil {
		s.logger.Error("oauth callback: saving session", slog.String("error", err.Error()))
		http.Error(w, "Sign-in failed while saving the session.", http.StatusInternalServerError)
		s.deliver(callbackOutcome{err: err})
		return
	}

	s.logger.Info("oauth sign-in completed",
		slog.String("userID", res.Tokens.UserID),
		slog.String("redirect", res.CleanURL),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Successfully signed in! You can close this window.")
	s.deliver(callbackOutcome{tokens: res.Tokens})
}

// deliver keeps only the first outcome; later redirects are ignored.
func (s *CallbackServer) deliver(o callbackOutcome) {
	select {
	case s.results <- o:
	default:
	}
}

// Wait serves on ln until one redirect arrives or ctx is done, then shuts
// the listener down.
func (s *CallbackServer) Wait(ctx context.Context, ln net.Listener) (*model.AuthTokens, error) {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case o := <-s.results:
		if o.err != nil {
			return nil, o.err
		}
		return &o.tokens, nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil, errors.New("auth: callback listener closed")
		}
		return nil, fmt.Errorf("auth: callback listener: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
