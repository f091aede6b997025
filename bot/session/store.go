package session

import (
	"errors"
	"sync"
)

var (
	// ErrNoSession indicates the user has no live edit session.
	ErrNoSession = errors.New("session: no active session")
	// ErrSessionExists indicates a session is already live for the user;
	// callers must tear it down first, it is never silently replaced.
	ErrSessionExists = errors.New("session: session already exists")
)

// Store maps user identity to at most one live EditSession. Mutations for the
// same user are expected to run inside the user's exclusive section (Lock);
// different users never contend beyond the brief table lookup.
type Store struct {
	mu    sync.Mutex
	users map[int64]*userSlot
}

type userSlot struct {
	mu   sync.Mutex
	sess *EditSession
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{users: make(map[int64]*userSlot)}
}

func (s *Store) slot(userID int64) *userSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.users[userID]
	if !ok {
		slot = &userSlot{}
		s.users[userID] = slot
	}
	return slot
}

// Lock enters the user's exclusive section and returns the release function.
// Every handler that reads or mutates this user's session runs between the
// two, so events for one user apply strictly one at a time while other users
// proceed in parallel.
func (s *Store) Lock(userID int64) func() {
	slot := s.slot(userID)
	slot.mu.Lock()
	return slot.mu.Unlock
}

// Create installs a new session for its user. It fails if one already exists.
func (s *Store) Create(sess *EditSession) error {
	slot := s.slot(sess.UserID)
	if slot.sess != nil {
		return ErrSessionExists
	}
	slot.sess = sess
	return nil
}

// Get returns the user's live session or nil. Pure lookup, no side effects.
// The caller must hold the user's exclusive section (Lock); the returned
// pointer is only safe to read or mutate while it is held.
func (s *Store) Get(userID int64) *EditSession {
	return s.slot(userID).sess
}

// Delete removes the user's session. Idempotent.
func (s *Store) Delete(userID int64) {
	s.slot(userID).sess = nil
}

// BeginEditing opens a field prompt, setting the editing field and prompt
// message reference together. Fails if the user has no session.
func (s *Store) BeginEditing(userID int64, field Field, promptMessageID int) error {
	sess := s.Get(userID)
	if sess == nil {
		return ErrNoSession
	}
	sess.Prompt = &Prompt{Field: field, MessageID: promptMessageID}
	return nil
}

// EndEditing closes the open prompt, clearing the editing field and prompt
// reference together so the pairing invariant cannot be half-broken.
// No-op without a session.
func (s *Store) EndEditing(userID int64) {
	if sess := s.Get(userID); sess != nil {
		sess.Prompt = nil
	}
}

// ApplyUpdate sets exactly one session attribute. No-op without a session:
// callers are expected to have checked, but a racing delete must not crash.
func (s *Store) ApplyUpdate(userID int64, up FieldUpdate) {
	sess := s.Get(userID)
	if sess == nil {
		return
	}
	switch up.Field {
	case FieldTitle:
		sess.Title = up.Text
	case FieldArtist:
		sess.Artist = up.Text
	case FieldArt:
		sess.AlbumArt = up.Art
	case FieldTrimStart:
		if up.Seconds == nil {
			sess.TrimStart = 0
		} else {
			sess.TrimStart = *up.Seconds
		}
	case FieldTrimEnd:
		sess.TrimEnd = up.Seconds
	}
}

// SetInfoMessage repoints the summary message reference after a repost.
func (s *Store) SetInfoMessage(userID int64, messageID int, hasPhoto bool) {
	if sess := s.Get(userID); sess != nil {
		sess.InfoMessageID = messageID
		sess.InfoHasPhoto = hasPhoto
	}
}

// SetErrorMessage records the currently displayed validation error message.
func (s *Store) SetErrorMessage(userID int64, messageID int) {
	if sess := s.Get(userID); sess != nil {
		sess.ErrorMessageID = messageID
	}
}

// ClearErrorMessage forgets the validation error reference. No-op without a
// session.
func (s *Store) ClearErrorMessage(userID int64) {
	if sess := s.Get(userID); sess != nil {
		sess.ErrorMessageID = 0
	}
}

// SetFinalizing flips the export-in-flight marker.
func (s *Store) SetFinalizing(userID int64, v bool) {
	if sess := s.Get(userID); sess != nil {
		sess.Finalizing = v
	}
}

// InProgress reports whether the user currently has an open field prompt.
// It satisfies the router's Conversation check for text/photo dispatch and
// takes the user's exclusive section itself, so callers must not hold it.
func (s *Store) InProgress(userID int64) bool {
	slot := s.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	_, ok := slot.sess.Editing()
	return ok
}
