// Package store is the client's shared application state.
//
// OBSERVER PATTERN:
// Views and commands read from State and subscribe to the topics they show.
// Controllers are the only writers. Each setter replaces its value
// wholesale, then calls every subscriber of the topic:
//
//	unsub := st.Subscribe(store.TopicPosts, func(store.Topic) { redraw() })
//	defer unsub()
//
// Reads return copies, so a caller can never mutate shared state by
// accident. Subscribers run after the lock is released and may read State.
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/skillflow/internal/model"
)

// Topic names a part of the state that changed.
type Topic string

const (
	TopicCurrentUser      Topic = "currentUser"
	TopicPosts            Topic = "posts"
	TopicUsers            Topic = "users"
	TopicStories          Topic = "stories"
	TopicLearningProgress Topic = "learningProgress"
	TopicSkillShares      Topic = "skillShares"
	TopicNotifications    Topic = "notifications"
	TopicComments         Topic = "comments"
	TopicLikes            Topic = "likes"
	TopicModals           Topic = "modals"
	TopicSelection        Topic = "selection"
)

// Modal names a dialog that can be open.
type Modal string

const (
	ModalProfile                Modal = "profile"
	ModalCreatePost             Modal = "createPost"
	ModalUpdatePost             Modal = "updatePost"
	ModalCreateStory            Modal = "createStory"
	ModalStory                  Modal = "story"
	ModalCreateLearningProgress Modal = "createLearningProgress"
	ModalEditLearningProgress   Modal = "editLearningProgress"
	ModalCreateSkillShare       Modal = "createSkillShare"
	ModalUpdateSkillShare       Modal = "updateSkillShare"
	ModalFriendProfile          Modal = "friendProfile"
)

// State is safe for concurrent use. The zero value is not usable; call New.
type State struct {
	mu sync.RWMutex

	currentUser      *model.User
	posts            []model.Post
	users            []model.User
	stories          []model.Story
	learningProgress []model.LearningProgress
	skillShares      []model.SkillShare
	notifications    []model.Notification
	comments         map[string][]model.Comment // by post id
	likes            map[string][]model.Like    // by post id

	modals map[Modal]bool

	selectedPost             *model.Post
	selectedStory            *model.Story
	selectedLearningProgress *model.LearningProgress
	selectedSkillShare       *model.SkillShare
	selectedUser             *model.User

	subs map[Topic]map[string]func(Topic)
}

func New() *State {
	return &State{
		comments: make(map[string][]model.Comment),
		likes:    make(map[string][]model.Like),
		modals:   make(map[Modal]bool),
		subs:     make(map[Topic]map[string]func(Topic)),
	}
}

// Subscribe calls fn after every write to topic. The returned func removes
// the subscription and is safe to call more than once.
func (s *State) Subscribe(topic Topic, fn func(Topic)) (unsubscribe func()) {
	id := xid.New().String()

	s.mu.Lock()
	if s.subs[topic] == nil {
		s.subs[topic] = make(map[string]func(Topic))
	}
	s.subs[topic][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs[topic], id)
		s.mu.Unlock()
	}
}

// write runs fn under the write lock, then notifies topic's subscribers.
func (s *State) write(topic Topic, fn func()) {
	s.mu.Lock()
	fn()
	subs := slices.Collect(maps.Values(s.subs[topic]))
	s.mu.Unlock()

	for _, sub := range subs {
		sub(topic)
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// --- current user ---

// SetCurrentUser replaces the signed-in user; nil signs out.
func (s *State) SetCurrentUser(u *model.User) {
	s.write(TopicCurrentUser, func() { s.currentUser = clonePtr(u) })
}

// CurrentUser returns the signed-in user, if any.
func (s *State) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return model.User{}, false
	}
	return *s.currentUser, true
}

// --- collections ---

func (s *State) SetPosts(v []model.Post) {
	s.write(TopicPosts, func() { s.posts = slices.Clone(v) })
}

func (s *State) Posts() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.posts)
}

func (s *State) SetUsers(v []model.User) {
	s.write(TopicUsers, func() { s.users = slices.Clone(v) })
}

func (s *State) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// User looks a user up by account id.
func (s *State) User(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

func (s *State) SetStories(v []model.Story) {
	s.write(TopicStories, func() { s.stories = slices.Clone(v) })
}

func (s *State) Stories() []model.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.stories)
}

func (s *State) SetLearningProgress(v []model.LearningProgress) {
	s.write(TopicLearningProgress, func() { s.learningProgress = slices.Clone(v) })
}

func (s *State) LearningProgress() []model.LearningProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.learningProgress)
}

func (s *State) SetSkillShares(v []model.SkillShare) {
	s.write(TopicSkillShares, func() { s.skillShares = slices.Clone(v) })
}

func (s *State) SkillShares() []model.SkillShare {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.skillShares)
}

func (s *State) SetNotifications(v []model.Notification) {
	s.write(TopicNotifications, func() { s.notifications = slices.Clone(v) })
}

func (s *State) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}

// UnreadCount counts notifications not yet read.
func (s *State) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, x := range s.notifications {
		if !x.Read {
			n++
		}
	}
	return n
}

// SetComments replaces the comments of one post.
func (s *State) SetComments(postID string, v []model.Comment) {
	s.write(TopicComments, func() { s.comments[postID] = slices.Clone(v) })
}

func (s *State) Comments(postID string) []model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.comments[postID])
}

// SetLikes replaces the likes of one post.
func (s *State) SetLikes(postID string, v []model.Like) {
	s.write(TopicLikes, func() { s.likes[postID] = slices.Clone(v) })
}

func (s *State) Likes(postID string) []model.Like {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.likes[postID])
}

// --- modals ---

func (s *State) OpenModal(m Modal) {
	s.write(TopicModals, func() { s.modals[m] = true })
}

func (s *State) CloseModal(m Modal) {
	s.write(TopicModals, func() { delete(s.modals, m) })
}

func (s *State) IsOpen(m Modal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modals[m]
}

// --- selections ---

func (s *State) SelectPost(p *model.Post) {
	s.write(TopicSelection, func() { s.selectedPost = clonePtr(p) })
}

func (s *State) SelectedPost() *model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.selectedPost)
}

func (s *State) SelectStory(v *model.Story) {
	s.write(TopicSelection, func() { s.selectedStory = clonePtr(v) })
}

func (s *State) SelectedStory() *model.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.selectedStory)
}

func (s *State) SelectLearningProgress(v *model.LearningProgress) {
	s.write(TopicSelection, func() { s.selectedLearningProgress = clonePtr(v) })
}

func (s *State) SelectedLearningProgress() *model.LearningProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.selectedLearningProgress)
}

func (s *State) SelectSkillShare(v *model.SkillShare) {
	s.write(TopicSelection, func() { s.selectedSkillShare = clonePtr(v) })
}

func (s *State) SelectedSkillShare() *model.SkillShare {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.selectedSkillShare)
}

// SelectUser picks the profile shown in the friend profile dialog.
func (s *State) SelectUser(v *model.User) {
	s.write(TopicSelection, func() { s.selectedUser = clonePtr(v) })
}

func (s *State) SelectedUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.selectedUser)
}
