package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/tagbot/bot/audio"
)

func editingSession(field Field) *EditSession {
	sess := newTestSession(1)
	sess.Prompt = &Prompt{Field: field, MessageID: 5}
	return sess
}

func TestApplyNilSession(t *testing.T) {
	if _, err := Apply(nil, Finalize{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestApplyRejectsWhileFinalizing(t *testing.T) {
	sess := newTestSession(1)
	sess.Finalizing = true

	for _, ev := range []Event{
		SelectField{Field: FieldTitle},
		TextInput{Text: "x"},
		PhotoInput{Data: []byte{1}},
		Finalize{},
	} {
		if _, err := Apply(sess, ev); !errors.Is(err, ErrFinalizeInFlight) {
			t.Fatalf("%T err = %v, want ErrFinalizeInFlight", ev, err)
		}
	}
}

func TestApplySelectFieldOpensPrompt(t *testing.T) {
	sess := newTestSession(1)

	fx, err := Apply(sess, SelectField{Field: FieldTitle})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if fx.OpenPrompt == nil || fx.OpenPrompt.Field != FieldTitle {
		t.Fatalf("effects = %+v, want a title prompt", fx)
	}
	if fx.OpenPrompt.Placeholder != sess.Title {
		t.Fatalf("placeholder = %q, want current title %q", fx.OpenPrompt.Placeholder, sess.Title)
	}
	if fx.Update != nil || fx.CloseEditing || fx.Refresh || fx.Export {
		t.Fatalf("unexpected extra effects: %+v", fx)
	}
}

func TestApplySelectFieldWhileEditingSwitchesPrompt(t *testing.T) {
	sess := editingSession(FieldTitle)

	fx, err := Apply(sess, SelectField{Field: FieldArtist})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if fx.OpenPrompt == nil || fx.OpenPrompt.Field != FieldArtist {
		t.Fatalf("effects = %+v, want an artist prompt", fx)
	}
}

func TestApplySelectUnknownField(t *testing.T) {
	if _, err := Apply(newTestSession(1), SelectField{Field: "genre"}); err == nil {
		t.Fatal("want error for unknown field")
	}
}

func TestApplySelectTrimPromptShowsCurrentValue(t *testing.T) {
	sess := newTestSession(1)

	fx, err := Apply(sess, SelectField{Field: FieldTrimStart})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !fx.OpenPrompt.TrimKeyboard {
		t.Fatal("trim prompt without the don't-trim keyboard")
	}
	if !strings.Contains(fx.OpenPrompt.Text, "0:00") {
		t.Fatalf("default start prompt %q does not show 0:00", fx.OpenPrompt.Text)
	}

	fx, err = Apply(sess, SelectField{Field: FieldTrimEnd})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(fx.OpenPrompt.Text, "end of track") {
		t.Fatalf("default end prompt %q does not say end of track", fx.OpenPrompt.Text)
	}

	sess.TrimStart = 83.5
	end := 201.5
	sess.TrimEnd = &end

	fx, _ = Apply(sess, SelectField{Field: FieldTrimStart})
	if !strings.Contains(fx.OpenPrompt.Text, "1:23.5") {
		t.Fatalf("start prompt %q does not show the set bound", fx.OpenPrompt.Text)
	}
	fx, _ = Apply(sess, SelectField{Field: FieldTrimEnd})
	if !strings.Contains(fx.OpenPrompt.Text, "3:21.5") {
		t.Fatalf("end prompt %q does not show the set bound", fx.OpenPrompt.Text)
	}
}

func TestApplyTextWithoutOpenPrompt(t *testing.T) {
	if _, err := Apply(newTestSession(1), TextInput{Text: "hi"}); !errors.Is(err, ErrNoActiveEdit) {
		t.Fatalf("err = %v, want ErrNoActiveEdit", err)
	}
}

func TestApplyTextUpdatesTag(t *testing.T) {
	for _, field := range []Field{FieldTitle, FieldArtist} {
		sess := editingSession(field)
		fx, err := Apply(sess, TextInput{Text: "New Value"})
		if err != nil {
			t.Fatalf("%s: %v", field, err)
		}
		if fx.Update == nil || fx.Update.Field != field || fx.Update.Text != "New Value" {
			t.Fatalf("%s update = %+v", field, fx.Update)
		}
		if !fx.CloseEditing || !fx.Refresh {
			t.Fatalf("%s effects = %+v, want close+refresh", field, fx)
		}
	}
}

func TestApplyTextTrimParses(t *testing.T) {
	sess := editingSession(FieldTrimStart)

	fx, err := Apply(sess, TextInput{Text: "1:23.5"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if fx.Update == nil || fx.Update.Seconds == nil || *fx.Update.Seconds != 83.5 {
		t.Fatalf("update = %+v, want 83.5 seconds", fx.Update)
	}
	if !fx.CloseEditing || !fx.Refresh {
		t.Fatalf("effects = %+v, want close+refresh", fx)
	}
}

func TestApplyTextTrimParseFailureKeepsPrompt(t *testing.T) {
	sess := editingSession(FieldTrimEnd)

	fx, err := Apply(sess, TextInput{Text: "1:2:3:4"})
	if !errors.Is(err, audio.ErrInvalidTimestamp) {
		t.Fatalf("err = %v, want ErrInvalidTimestamp", err)
	}
	if fx.Update != nil || fx.CloseEditing {
		t.Fatalf("effects = %+v, parse failure must not close the prompt", fx)
	}
	if _, ok := sess.Editing(); !ok {
		t.Fatal("session stopped editing on a parse failure")
	}
}

func TestApplyTextDontTrimResets(t *testing.T) {
	for _, text := range []string{NoTrimText, "DON'T TRIM", "  don't trim "} {
		sess := editingSession(FieldTrimEnd)
		fx, err := Apply(sess, TextInput{Text: text})
		if err != nil {
			t.Fatalf("%q: %v", text, err)
		}
		if fx.Update == nil || fx.Update.Field != FieldTrimEnd || fx.Update.Seconds != nil {
			t.Fatalf("%q update = %+v, want a nil-seconds reset", text, fx.Update)
		}
		if !fx.CloseEditing || !fx.Refresh {
			t.Fatalf("%q effects = %+v", text, fx)
		}
	}
}

func TestApplyTextDuringArtEdit(t *testing.T) {
	sess := editingSession(FieldArt)
	if _, err := Apply(sess, TextInput{Text: "not a photo"}); !errors.Is(err, ErrUnexpectedInput) {
		t.Fatalf("err = %v, want ErrUnexpectedInput", err)
	}
	if _, ok := sess.Editing(); !ok {
		t.Fatal("art prompt closed by stray text")
	}
}

func TestApplyPhoto(t *testing.T) {
	sess := editingSession(FieldArt)
	fx, err := Apply(sess, PhotoInput{Data: []byte{0xff, 0xd8}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if fx.Update == nil || fx.Update.Field != FieldArt || len(fx.Update.Art) != 2 {
		t.Fatalf("update = %+v", fx.Update)
	}
	if !fx.CloseEditing || !fx.Refresh {
		t.Fatalf("effects = %+v, want close+refresh", fx)
	}

	// A photo is only meaningful while the art prompt is open.
	for _, sess := range []*EditSession{newTestSession(1), editingSession(FieldTitle)} {
		if _, err := Apply(sess, PhotoInput{Data: []byte{1}}); !errors.Is(err, ErrUnexpectedInput) {
			t.Fatalf("err = %v, want ErrUnexpectedInput", err)
		}
	}
}

func TestApplyFinalize(t *testing.T) {
	fx, err := Apply(newTestSession(1), Finalize{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !fx.Export {
		t.Fatalf("effects = %+v, want Export", fx)
	}
}
