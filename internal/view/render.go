package view

import (
	"bufio"
	"io"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/store"
)

// CommentPreviews is how many comments a post card shows.
const CommentPreviews = 2

// Renderer writes pages from the store.
type Renderer struct {
	p   *message.Printer
	now func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{p: newPrinter(), now: time.Now}
}

// WithClock returns a copy of r that reads the time from now.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	c := *r
	c.now = now
	return &c
}

// Render writes the page for urlPath.
func (r *Renderer) Render(w io.Writer, urlPath string, s *store.State) error {
	bw := bufio.NewWriter(w)
	switch Resolve(urlPath) {
	case Landing:
		r.landing(bw, s)
	case Community:
		r.community(bw, s)
	default:
		r.p.Fprintf(bw, "Page not found: %s\n", urlPath)
	}
	return bw.Flush()
}

func (r *Renderer) landing(w io.Writer, s *store.State) {
	r.p.Fprintln(w, "SkillFlow: share your skills, track your learning, and keep each other going.")
	r.p.Fprintln(w)
	if u, ok := s.CurrentUser(); ok {
		r.p.Fprintf(w, "Welcome back, %s!\n", u.Username)
		r.p.Fprintln(w, "Run `skillflow feed` to open the community.")
		return
	}
	r.p.Fprintln(w, "You are not signed in.")
	r.p.Fprintln(w, "  skillflow login             sign in with username and password")
	r.p.Fprintln(w, "  skillflow register          create an account")
	r.p.Fprintln(w, "  skillflow oauth <provider>  sign in with google or github")
}

func (r *Renderer) community(w io.Writer, s *store.State) {
	me, signedIn := s.CurrentUser()

	if signedIn {
		r.p.Fprintf(w, "Signed in as %s", me.Username)
		if n := s.UnreadCount(); n > 0 {
			r.p.Fprintf(w, " [%s]", r.p.Sprintf(msgUnread, n))
		}
		r.p.Fprintln(w)
		r.p.Fprintln(w)
	}

	r.section(w, "Stories")
	for _, st := range s.Stories() {
		r.Story(w, st, s)
	}

	r.section(w, "Posts")
	for _, p := range s.Posts() {
		r.Post(w, p, s, me.ID)
	}

	r.section(w, "Learning Progress")
	for _, lp := range s.LearningProgress() {
		r.LearningProgress(w, lp, s)
	}

	r.section(w, "Skill Shares")
	for _, ss := range s.SkillShares() {
		r.SkillShare(w, ss, s)
	}

	if signedIn {
		r.section(w, "Notifications")
		for _, n := range s.Notifications() {
			r.Notification(w, n)
		}
	}
}

func (r *Renderer) section(w io.Writer, title string) {
	r.p.Fprintf(w, "== %s ==\n", title)
}

// Story writes one entry of the stories tray.
func (r *Renderer) Story(w io.Writer, st model.Story, s *store.State) {
	r.p.Fprintf(w, "* %s by %s (%s, %s, %s)\n",
		st.Title, r.author(s, st.UserID),
		r.p.Sprintf(msgStoryLength, st.TimeDuration), Intensity(st.TimeDuration),
		RelativeTime(r.p, st.Timestamp, r.now()))
	if st.ExerciseType != "" {
		r.p.Fprintf(w, "  %s\n", st.ExerciseType)
	}
	if st.Description != "" {
		r.p.Fprintf(w, "  %s\n", st.Description)
	}
}

// Post writes a post card: author, body, media, like count and the first
// comments. viewerID decides the liked state and which comments get a
// delete control; it may be empty.
func (r *Renderer) Post(w io.Writer, p model.Post, s *store.State, viewerID string) {
	r.p.Fprintf(w, "[%s] %s · %s\n", p.ID, r.author(s, p.UserID), RelativeTime(r.p, p.Timestamp, r.now()))
	r.p.Fprintf(w, "  %s\n", p.ContentDescription)
	if p.MediaLink != "" {
		r.p.Fprintf(w, "  %s: %s\n", orDefault(p.MediaType, "file"), p.MediaLink)
	}
	if len(p.Tags) > 0 {
		r.p.Fprintf(w, "  #%s\n", strings.Join(p.Tags, " #"))
	}

	likes := s.Likes(p.ID)
	comments := s.Comments(p.ID)
	r.p.Fprintf(w, "  %s", r.p.Sprintf(msgLikes, len(likes)))
	if viewerID != "" && likedBy(likes, viewerID) {
		r.p.Fprint(w, " (you liked this)")
	}
	r.p.Fprintf(w, " · %s\n", r.p.Sprintf(msgComments, len(comments)))

	for _, cm := range comments[:min(len(comments), CommentPreviews)] {
		r.Comment(w, cm, s, viewerID)
	}
}

// Comment writes one comment. Only its author sees the delete control.
func (r *Renderer) Comment(w io.Writer, cm model.Comment, s *store.State, viewerID string) {
	r.p.Fprintf(w, "    %s: %s", r.author(s, cm.UserID), cm.CommentText)
	if viewerID != "" && cm.UserID == viewerID {
		r.p.Fprintf(w, "  [delete %s]", cm.ID)
	}
	r.p.Fprintln(w)
}

// LearningProgress writes a plan card with its status tag.
func (r *Renderer) LearningProgress(w io.Writer, lp model.LearningProgress, s *store.State) {
	pct := Progress(lp)
	r.p.Fprintf(w, "[%s] %s by %s  %d%% %s\n", lp.ID, lp.PlanName, r.author(s, lp.UserID), pct, StatusTag(pct))
	r.p.Fprintf(w, "  %s\n", lp.Description)
	if lp.Goal != "" {
		r.p.Fprintf(w, "  goal: %s\n", lp.Goal)
	}
}

// SkillShare writes a skill share with its attachments.
func (r *Renderer) SkillShare(w io.Writer, ss model.SkillShare, s *store.State) {
	r.p.Fprintf(w, "[%s] %s · %s\n", ss.ID, r.author(s, ss.UserID), RelativeTime(r.p, ss.CreatedAt, r.now()))
	r.p.Fprintf(w, "  %s\n", ss.MealDetails)
	for i, u := range ss.MediaURLs {
		kind := "file"
		if i < len(ss.MediaTypes) {
			kind = ss.MediaTypes[i]
		}
		r.p.Fprintf(w, "  %s: %s\n", kind, u)
	}
}

func (r *Renderer) Notification(w io.Writer, n model.Notification) {
	mark := " "
	if !n.Read {
		mark = "*"
	}
	r.p.Fprintf(w, "%s [%s] %s: %s\n", mark, n.ID, n.Title, n.Description)
}

func (r *Renderer) author(s *store.State, userID string) string {
	if u, ok := s.User(userID); ok && u.Username != "" {
		return u.Username
	}
	if me, ok := s.CurrentUser(); ok && me.ID == userID && me.Username != "" {
		return me.Username
	}
	return "unknown user"
}

func likedBy(likes []model.Like, userID string) bool {
	for _, l := range likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
