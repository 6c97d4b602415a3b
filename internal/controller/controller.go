// Package controller drives the forms and dialogs of the client.
//
// THE CONTROLLER CONTRACT:
// Every user action follows the same steps:
//
//  1. validate the input locally; a bad form never produces a request
//  2. call one or two service methods, in order
//  3. re-fetch the affected collection in full and write it to the store
//  4. close the dialog and show a success notice
//
// If any step fails the controller shows a short error notice, leaves the
// dialog open and returns the error. The store is never patched item by
// item: the server's copy of a collection is the only source of truth.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/store"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier sends notices to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(msg string) { n.Logger.Info(msg) }
func (n LogNotifier) Error(msg string)   { n.Logger.Warn(msg) }

// WriterNotifier prints notices, one per line.
type WriterNotifier struct {
	Out io.Writer
	Err io.Writer
}

func (n WriterNotifier) Success(msg string) { fmt.Fprintln(n.Out, msg) }
func (n WriterNotifier) Error(msg string)   { fmt.Fprintln(n.Err, "error: "+msg) }

// Deps are shared by all controllers.
type Deps struct {
	API      *api.Client
	Session  *auth.Session
	State    *store.State
	Uploader api.Uploader
	Prober   media.Prober
	Notify   Notifier
	Logger   *slog.Logger
}

// Controllers bundles one of each controller over the same Deps.
type Controllers struct {
	Auth             *AuthController
	Community        *CommunityController
	Posts            *PostController
	Engagement       *EngagementController
	LearningProgress *LearningProgressController
	SkillShares      *SkillShareController
	Stories          *StoryController
	Notifications    *NotificationController
	Profile          *ProfileController
}

func New(d Deps) *Controllers {
	return &Controllers{
		Auth:             &AuthController{base: base{d: d}},
		Community:        &CommunityController{base: base{d: d}},
		Posts:            &PostController{base: base{d: d}},
		Engagement:       &EngagementController{base: base{d: d}},
		LearningProgress: &LearningProgressController{base: base{d: d}},
		SkillShares:      &SkillShareController{base: base{d: d}},
		Stories:          &StoryController{base: base{d: d}},
		Notifications:    &NotificationController{base: base{d: d}},
		Profile:          &ProfileController{base: base{d: d}},
	}
}

// action describes how one user action reports its outcome.
type action struct {
	name    string      // for logs
	modal   store.Modal // closed on success, if set
	success string      // success notice, if set
	failure string      // replaces the notice for failed requests, if set
}

type base struct {
	d       Deps
	pending atomic.Bool
}

// Pending reports whether a call is in flight.
func (b *base) Pending() bool {
	return b.pending.Load()
}

func (b *base) run(ctx context.Context, a action, fn func(ctx context.Context) error) error {
	b.pending.Store(true)
	defer b.pending.Store(false)

	if err := fn(ctx); err != nil {
		b.d.Logger.Warn("action failed", slog.String("action", a.name), slog.String("error", err.Error()))
		b.d.Notify.Error(noticeFor(err, a.failure))
		return err
	}

	if a.modal != "" {
		b.d.State.CloseModal(a.modal)
	}
	if a.success != "" {
		b.d.Notify.Success(a.success)
	}
	return nil
}

// userID returns the signed-in account id.
func (b *base) userID(ctx context.Context) (string, error) {
	id, err := b.d.Session.UserID(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", apperror.Unauthenticated()
	}
	return id, nil
}

// upload detects the type of src and stores it under folder. only limits
// the accepted top-level kinds; empty accepts images and videos.
func (b *base) upload(ctx context.Context, folder string, src media.Source, only ...string) (url, kind string, err error) {
	mimeType, kind := media.Detect(src.Data)
	accepted := only
	if len(accepted) == 0 {
		accepted = []string{"image", "video"}
	}
	if !slices.Contains(accepted, kind) {
		return "", "", apperror.ValidationFailed("file", fmt.Sprintf("File %q is not an %s.", src.Name, strings.Join(accepted, " or ")))
	}

	url, err = b.d.Uploader.Upload(ctx, folder, api.File{Name: src.Name, ContentType: mimeType, Data: src.Data})
	if err != nil {
		return "", "", err
	}
	return url, kind, nil
}

// noticeFor turns err into the message shown to the user. Local errors
// carry their own message; failed requests get failure when set.
func noticeFor(err error, failure string) string {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrRequest) && failure != "":
		return failure
	case errors.As(err, &appErr):
		msg := appErr.Message
		if errors.Is(err, apperror.ErrRequest) {
			msg = capitalize(msg) + ". Please try again."
		}
		return msg
	default:
		return "Something went wrong. Please try again."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func required(field, value, msg string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, msg)
	}
	return nil
}
