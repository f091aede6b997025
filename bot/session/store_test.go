package session

import (
	"errors"
	"sync"
	"testing"
)

func newTestSession(userID int64) *EditSession {
	return &EditSession{
		UserID:       userID,
		ChatID:       userID,
		FilePath:     "/tmp/a.mp3",
		OriginalName: "a.mp3",
		Title:        "Song",
		Artist:       "Artist",
	}
}

func TestStoreCreateGetDelete(t *testing.T) {
	s := NewStore()

	if got := s.Get(1); got != nil {
		t.Fatalf("Get on empty store = %+v, want nil", got)
	}

	sess := newTestSession(1)
	if err := s.Create(sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := s.Get(1); got != sess {
		t.Fatalf("Get returned %+v, want the created session", got)
	}

	if err := s.Create(newTestSession(1)); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("second Create err = %v, want ErrSessionExists", err)
	}

	s.Delete(1)
	if got := s.Get(1); got != nil {
		t.Fatalf("Get after Delete = %+v, want nil", got)
	}
	// Delete again must not complain.
	s.Delete(1)
}

func TestStoreIsolatesUsers(t *testing.T) {
	s := NewStore()
	if err := s.Create(newTestSession(1)); err != nil {
		t.Fatalf("Create user 1: %v", err)
	}
	if err := s.Create(newTestSession(2)); err != nil {
		t.Fatalf("Create user 2: %v", err)
	}

	s.ApplyUpdate(1, FieldUpdate{Field: FieldTitle, Text: "Other"})
	if got := s.Get(2).Title; got != "Song" {
		t.Fatalf("user 2 title = %q, changed by user 1 update", got)
	}

	s.Delete(1)
	if s.Get(2) == nil {
		t.Fatal("deleting user 1 removed user 2's session")
	}
}

func TestStoreEditingPairInvariant(t *testing.T) {
	s := NewStore()

	if err := s.BeginEditing(1, FieldTitle, 10); !errors.Is(err, ErrNoSession) {
		t.Fatalf("BeginEditing without session err = %v, want ErrNoSession", err)
	}

	if err := s.Create(newTestSession(1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.BeginEditing(1, FieldArtist, 42); err != nil {
		t.Fatalf("BeginEditing: %v", err)
	}

	sess := s.Get(1)
	field, ok := sess.Editing()
	if !ok || field != FieldArtist {
		t.Fatalf("Editing() = (%q, %v), want (artist, true)", field, ok)
	}
	if sess.Prompt == nil || sess.Prompt.MessageID != 42 {
		t.Fatalf("prompt = %+v, want message 42", sess.Prompt)
	}

	s.EndEditing(1)
	if _, ok := s.Get(1).Editing(); ok {
		t.Fatal("still editing after EndEditing")
	}
	if s.Get(1).Prompt != nil {
		t.Fatal("prompt reference survived EndEditing")
	}

	// EndEditing after the session is gone stays silent.
	s.Delete(1)
	s.EndEditing(1)
}

func TestStoreApplyUpdate(t *testing.T) {
	s := NewStore()
	if err := s.Create(newTestSession(1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.ApplyUpdate(1, FieldUpdate{Field: FieldTitle, Text: "New Title"})
	s.ApplyUpdate(1, FieldUpdate{Field: FieldArtist, Text: "New Artist"})
	s.ApplyUpdate(1, FieldUpdate{Field: FieldArt, Art: []byte{0xff, 0xd8}})

	start := 12.5
	end := 90.0
	s.ApplyUpdate(1, FieldUpdate{Field: FieldTrimStart, Seconds: &start})
	s.ApplyUpdate(1, FieldUpdate{Field: FieldTrimEnd, Seconds: &end})

	sess := s.Get(1)
	if sess.Title != "New Title" || sess.Artist != "New Artist" {
		t.Fatalf("tags = (%q, %q)", sess.Title, sess.Artist)
	}
	if len(sess.AlbumArt) != 2 {
		t.Fatalf("art = %v", sess.AlbumArt)
	}
	if sess.TrimStart != 12.5 || sess.TrimEnd == nil || *sess.TrimEnd != 90 {
		t.Fatalf("trim = (%v, %v)", sess.TrimStart, sess.TrimEnd)
	}
	if !sess.TrimRequested() {
		t.Fatal("TrimRequested = false with both bounds set")
	}

	// nil Seconds resets each bound to its default.
	s.ApplyUpdate(1, FieldUpdate{Field: FieldTrimStart})
	s.ApplyUpdate(1, FieldUpdate{Field: FieldTrimEnd})
	if sess.TrimStart != 0 || sess.TrimEnd != nil {
		t.Fatalf("after reset trim = (%v, %v)", sess.TrimStart, sess.TrimEnd)
	}
	if sess.TrimRequested() {
		t.Fatal("TrimRequested = true after reset")
	}

	// Updates for absent users are dropped, not a crash.
	s.ApplyUpdate(99, FieldUpdate{Field: FieldTitle, Text: "ghost"})
}

func TestStoreErrorMessageTracking(t *testing.T) {
	s := NewStore()
	if err := s.Create(newTestSession(1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.SetErrorMessage(1, 7)
	if got := s.Get(1).ErrorMessageID; got != 7 {
		t.Fatalf("ErrorMessageID = %d, want 7", got)
	}
	s.ClearErrorMessage(1)
	if got := s.Get(1).ErrorMessageID; got != 0 {
		t.Fatalf("ErrorMessageID = %d after clear, want 0", got)
	}
}

func TestStoreConcurrentUsers(t *testing.T) {
	s := NewStore()
	const users = 50

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			unlock := s.Lock(userID)
			defer unlock()

			sess := newTestSession(userID)
			if err := s.Create(sess); err != nil {
				t.Errorf("user %d Create: %v", userID, err)
				return
			}
			if err := s.BeginEditing(userID, FieldTitle, int(userID)); err != nil {
				t.Errorf("user %d BeginEditing: %v", userID, err)
				return
			}
			s.ApplyUpdate(userID, FieldUpdate{Field: FieldTitle, Text: "t"})
			s.EndEditing(userID)
		}(int64(i))
	}
	wg.Wait()

	for i := 0; i < users; i++ {
		sess := s.Get(int64(i))
		if sess == nil {
			t.Fatalf("user %d lost their session", i)
		}
		if sess.Title != "t" {
			t.Fatalf("user %d title = %q", i, sess.Title)
		}
	}
}

func TestStoreLockSerializesSameUser(t *testing.T) {
	s := NewStore()
	if err := s.Create(newTestSession(1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const rounds = 200
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock(1)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != rounds {
		t.Fatalf("counter = %d, want %d", counter, rounds)
	}
}

func TestStoreInProgressConcurrentWithEdits(t *testing.T) {
	s := NewStore()
	if err := s.Create(newTestSession(1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const rounds = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			unlock := s.Lock(1)
			_ = s.BeginEditing(1, FieldTitle, i)
			s.EndEditing(1)
			unlock()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			s.InProgress(1)
		}
	}()
	wg.Wait()

	if s.InProgress(1) {
		t.Fatal("InProgress = true after all prompts closed")
	}
}
