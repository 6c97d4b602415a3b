// Package apitest runs an in-memory SkillFlow API for tests.
//
// The fake keeps every collection in memory, issues bearer tokens on
// login/register, rejects authenticated routes without one, and records
// each request as "METHOD /path" so tests can assert which calls were made
// (or that none were).
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/skillflow/internal/model"
)

// Server is a fake API. All fields are guarded by mu; use the accessor
// methods from tests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	seq      int
	requests []string
	failures map[string]int

	accounts  map[string]model.Account // by id
	passwords map[string]string        // by username
	access    map[string]string        // access token -> user id
	refresh   map[string]string        // refresh token -> user id

	profiles      *collection[model.Profile]
	posts         *collection[model.Post]
	comments      *collection[model.Comment]
	likes         *collection[model.Like]
	progress      *collection[model.LearningProgress]
	skills        *collection[model.SkillShare]
	stories       *collection[model.Story]
	notifications *collection[model.Notification]

	uploads []Upload
}

// Upload is a file received on /api/files/upload.
type Upload struct {
	Folder      string
	Name        string
	ContentType string
	Size        int
}

// NewServer starts the fake and closes it when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		failures:  make(map[string]int),
		accounts:  make(map[string]model.Account),
		passwords: make(map[string]string),
		access:    make(map[string]string),
		refresh:   make(map[string]string),

		profiles: newCollection(func(p *model.Profile) *string { return &p.ID }, func(p *model.Profile) string { return p.UserID }),
		posts:    newCollection(func(p *model.Post) *string { return &p.ID }, func(p *model.Post) string { return p.UserID }),
		comments: newCollection(func(c *model.Comment) *string { return &c.ID }, func(c *model.Comment) string { return c.UserID }),
		likes:    newCollection(func(l *model.Like) *string { return &l.ID }, func(l *model.Like) string { return l.UserID }),
		progress: newCollection(func(p *model.LearningProgress) *string { return &p.ID }, func(p *model.LearningProgress) string { return p.UserID }),
		skills:   newCollection(func(p *model.SkillShare) *string { return &p.ID }, func(p *model.SkillShare) string { return p.UserID }),
		stories:  newCollection(func(p *model.Story) *string { return &p.ID }, func(p *model.Story) string { return p.UserID }),
		notifications: newCollection(func(n *model.Notification) *string { return &n.ID },
			func(n *model.Notification) string { return n.UserID }),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Get("/users/exists/{username}", s.handleExists)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Get("/users/me", s.handleMe)
			r.Get("/users/{id}", s.handleAccount)
			r.Post("/users/oauth/register", s.handleOAuthRegister)

			r.Get("/userProfiles", listAll(s, s.profiles))
			r.Post("/userProfiles", create(s, s.profiles, nil))
			r.Get("/userProfiles/{id}", getOne(s, s.profiles))
			r.Get("/userProfiles/user/{id}", listByOwner(s, s.profiles))
			r.Put("/userProfiles/{id}", update(s, s.profiles))

			r.Get("/posts", listAll(s, s.posts))
			r.Post("/posts", create(s, s.posts, func(p *model.Post) { p.Timestamp = time.Now().UTC() }))
			r.Put("/posts/{id}", update(s, s.posts))
			r.Delete("/posts/{id}", remove(s, s.posts))

			r.Get("/comments/post/{id}", listWhere(s, s.comments, func(c *model.Comment, id string) bool { return c.PostID == id }))
			r.Post("/comments", create(s, s.comments, func(c *model.Comment) { c.CreatedAt = time.Now().UTC() }))
			r.Put("/comments/{id}", update(s, s.comments))
			r.Delete("/comments/{id}", remove(s, s.comments))

			r.Get("/likes/post/{id}", listWhere(s, s.likes, func(l *model.Like, id string) bool { return l.PostID == id }))
			r.Post("/likes", create(s, s.likes, nil))
			r.Delete("/likes/{id}", remove(s, s.likes))

			mountUserResource(r, s, "/LearningProgresss", s.progress, func(p *model.LearningProgress) {
				now := time.Now().UTC()
				p.CreatedAt, p.LastUpdated = now, now
			})
			mountUserResource(r, s, "/SkillShares", s.skills, func(p *model.SkillShare) { p.CreatedAt = time.Now().UTC() })
			mountUserResource(r, s, "/workoutStatusUpdates", s.stories, func(p *model.Story) { p.Timestamp = time.Now().UTC() })

			r.Get("/notifications", listAll(s, s.notifications))
			r.Post("/notifications", create(s, s.notifications, nil))
			r.Put("/notifications/{id}/markAsRead", s.handleMarkRead)
			r.Put("/notifications/user/{id}/markAllAsRead", s.handleMarkAllRead)

			r.Post("/files/upload", s.handleUpload)
		})
	})
	return r
}

func mountUserResource[T any](r chi.Router, s *Server, path string, c *collection[T], stamp func(*T)) {
	r.Get(path, listAll(s, c))
	r.Post(path, create(s, c, stamp))
	r.Get(path+"/{id}", listByOwner(s, c))
	r.Put(path+"/{id}", update(s, c))
	r.Delete(path+"/{id}", remove(s, c))
}

// record logs the request and applies any configured failure.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.requests = append(s.requests, key)
		status := 0
		for prefix, st := range s.failures {
			if strings.HasPrefix(key, prefix) {
				status = st
				break
			}
		}
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, errorResponse{Error: "forced", Message: "forced failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, known := s.access[tok]
		s.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "missing or invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- test controls ---

// Fail makes every request whose "METHOD /path" starts with prefix answer
// with status.
func (s *Server) Fail(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = status
}

// Requests returns the recorded "METHOD /path" lines.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// RequestCount counts recorded requests starting with prefix.
func (s *Server) RequestCount(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// ResetRequests forgets the recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// AddUser creates an account with a profile and returns tokens for it.
func (s *Server) AddUser(username, password string) model.AuthTokens {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.newAccountLocked(username, password)
	s.profiles.add(&model.Profile{UserID: acc.ID, Biography: username + " bio", FitnessGoals: username + " goals"}, s.nextIDLocked)
	return s.issueLocked(acc.ID)
}

// Seed helpers add records directly, bypassing the API.
func (s *Server) SeedPost(p model.Post) model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts.add(&p, s.nextIDLocked)
}

func (s *Server) SeedComment(c model.Comment) model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments.add(&c, s.nextIDLocked)
}

func (s *Server) SeedLike(l model.Like) model.Like {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes.add(&l, s.nextIDLocked)
}

func (s *Server) SeedNotification(n model.Notification) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifications.add(&n, s.nextIDLocked)
}

func (s *Server) SeedStory(st model.Story) model.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stories.add(&st, s.nextIDLocked)
}

func (s *Server) SeedLearningProgress(p model.LearningProgress) model.LearningProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.add(&p, s.nextIDLocked)
}

func (s *Server) SeedSkillShare(p model.SkillShare) model.SkillShare {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skills.add(&p, s.nextIDLocked)
}

func (s *Server) Posts() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts.all()
}

func (s *Server) Comments() []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments.all()
}

func (s *Server) Likes() []model.Like {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes.all()
}

func (s *Server) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifications.all()
}

func (s *Server) Profiles() []model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles.all()
}

func (s *Server) SkillShares() []model.SkillShare {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skills.all()
}

func (s *Server) Stories() []model.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stories.all()
}

func (s *Server) LearningProgress() []model.LearningProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.all()
}

func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// --- handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c model.Credentials
	if !decode(w, r, &c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pw, ok := s.passwords[c.Username]
	if !ok || pw != c.Password {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, s.issueLocked(s.accountIDLocked(c.Username)))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c model.Credentials
	if !decode(w, r, &c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.passwords[c.Username]; taken {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: "username already exists"})
		return
	}
	acc := s.newAccountLocked(c.Username, c.Password)
	writeJSON(w, http.StatusCreated, s.issueLocked(acc.ID))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[body.RefreshToken]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "invalid refresh token"})
		return
	}
	s.seq++
	tok := fmt.Sprintf("access-%s-%d", userID, s.seq)
	s.access[tok] = userID
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": tok})
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, ok := s.passwords[chi.URLParam(r, "username")]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, ok)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.accounts[s.access[tok]])
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleOAuthRegister(w http.ResponseWriter, r *http.Request) {
	var req model.OAuthRegistration
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.newAccountLocked(req.Username, "")
	writeJSON(w, http.StatusCreated, map[string]string{"userId": acc.ID})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notifications.get(id)
	if n == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "notification not found"})
		return
	}
	n.Read = true
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications.items {
		if n.UserID == userID {
			n.Read = true
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: "file is required"})
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	folder := r.FormValue("folder")
	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{
		Folder:      folder,
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        len(data),
	})
	n := len(s.uploads)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"url": fmt.Sprintf("%s/files/%s/%d-%s", s.URL, folder, n, hdr.Filename)})
}

// --- generic collection handlers ---

func listAll[T any](s *Server, c *collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, c.all())
	}
}

func listByOwner[T any](s *Server, c *collection[T]) http.HandlerFunc {
	return listWhere(s, c, func(v *T, id string) bool { return c.owner(v) == id })
}

func listWhere[T any](s *Server, c *collection[T], match func(*T, string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		out := []T{}
		for _, v := range c.items {
			if match(v, id) {
				out = append(out, *v)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getOne[T any](s *Server, c *collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		v := c.get(chi.URLParam(r, "id"))
		if v == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "not found"})
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func create[T any](s *Server, c *collection[T], stamp func(*T)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v T
		if !decode(w, r, &v) {
			return
		}
		if stamp != nil {
			stamp(&v)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusCreated, c.add(&v, s.nextIDLocked))
	}
}

func update[T any](s *Server, c *collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v T
		if !decode(w, r, &v) {
			return
		}
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		cur := c.get(id)
		if cur == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "not found"})
			return
		}
		*c.id(&v) = id
		*cur = v
		writeJSON(w, http.StatusOK, v)
	}
}

func remove[T any](s *Server, c *collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !c.remove(chi.URLParam(r, "id")) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- internals (callers hold mu) ---

func (s *Server) nextIDLocked() string {
	s.seq++
	return fmt.Sprintf("id-%d", s.seq)
}

func (s *Server) newAccountLocked(username, password string) model.Account {
	acc := model.Account{ID: s.nextIDLocked(), Username: username, Email: username + "@example.com"}
	s.accounts[acc.ID] = acc
	s.passwords[username] = password
	return acc
}

func (s *Server) accountIDLocked(username string) string {
	for id, acc := range s.accounts {
		if acc.Username == username {
			return id
		}
	}
	return ""
}

func (s *Server) issueLocked(userID string) model.AuthTokens {
	s.seq++
	t := model.AuthTokens{
		UserID:       userID,
		AccessToken:  fmt.Sprintf("access-%s-%d", userID, s.seq),
		RefreshToken: fmt.Sprintf("refresh-%s-%d", userID, s.seq),
	}
	s.access[t.AccessToken] = userID
	s.refresh[t.RefreshToken] = userID
	return t
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: "Invalid JSON body"})
		return false
	}
	return true
}
