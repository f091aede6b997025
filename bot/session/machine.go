package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/tagbot/bot/audio"
)

var (
	// ErrNoActiveEdit indicates input arrived while no field prompt was open.
	// The orchestrator drops such input without mutating anything.
	ErrNoActiveEdit = errors.New("session: no field is being edited")
	// ErrUnexpectedInput indicates the input kind does not match the open
	// prompt (e.g. a document while a photo is expected). The session is
	// untouched and the prompt stays open.
	ErrUnexpectedInput = errors.New("session: input does not match the open prompt")
	// ErrFinalizeInFlight rejects events racing an in-flight export.
	ErrFinalizeInFlight = errors.New("session: finalize already in flight")
)

// NoTrimText is the literal reply that resets a trim bound to its default.
const NoTrimText = "don't trim"

// Event is an inbound occurrence the state machine can react to.
type Event interface{ isEvent() }

// SelectField is the user pressing an edit button on the summary keyboard.
type SelectField struct{ Field Field }

// TextInput is the user replying to an open prompt with text.
type TextInput struct{ Text string }

// PhotoInput is the user sending a photo while the art prompt is open.
type PhotoInput struct{ Data []byte }

// Finalize is the user pressing the done button.
type Finalize struct{}

func (SelectField) isEvent() {}
func (TextInput) isEvent()   {}
func (PhotoInput) isEvent()  {}
func (Finalize) isEvent()    {}

// PromptRequest describes the prompt message the orchestrator must send when
// a field edit opens.
type PromptRequest struct {
	Field Field
	Text  string
	// Placeholder pre-fills the reply input hint with the current value.
	Placeholder string
	// TrimKeyboard attaches the one-time "don't trim" reply keyboard.
	TrimKeyboard bool
}

// FieldUpdate is a single validated attribute change ready to be applied via
// Store.ApplyUpdate. For trim fields a nil Seconds resets the bound to its
// default (0 for the start, "end of track" for the end).
type FieldUpdate struct {
	Field   Field
	Text    string
	Art     []byte
	Seconds *float64
}

// Effects lists the side effects the orchestrator must perform after a
// transition was accepted.
type Effects struct {
	// OpenPrompt requests a new field prompt; any previously open prompt and
	// stale error indicator are torn down first.
	OpenPrompt *PromptRequest
	// Update is the attribute change to persist.
	Update *FieldUpdate
	// CloseEditing means the prompt was consumed: delete the prompt message
	// and clear the editing state together.
	CloseEditing bool
	// Refresh means the summary message must be re-rendered.
	Refresh bool
	// Export triggers the finalize pipeline.
	Export bool
}

const timestampHint = "(e.g. 23, 1:23, 1:01:23, 4:23.5, 3.33)"

// Apply validates ev against the session's current editing state and returns
// the side effects the orchestrator must perform. It never mutates sess; all
// attribute changes travel through Effects.Update so the store applies them
// inside the user's exclusive section.
func Apply(sess *EditSession, ev Event) (Effects, error) {
	if sess == nil {
		return Effects{}, ErrNoSession
	}
	if sess.Finalizing {
		return Effects{}, ErrFinalizeInFlight
	}

	switch e := ev.(type) {
	case SelectField:
		return applySelect(sess, e.Field)
	case TextInput:
		return applyText(sess, e.Text)
	case PhotoInput:
		field, ok := sess.Editing()
		if !ok || field != FieldArt {
			return Effects{}, ErrUnexpectedInput
		}
		return Effects{
			Update:       &FieldUpdate{Field: FieldArt, Art: e.Data},
			CloseEditing: true,
			Refresh:      true,
		}, nil
	case Finalize:
		return Effects{Export: true}, nil
	}
	return Effects{}, fmt.Errorf("session: unknown event %T", ev)
}

func applySelect(sess *EditSession, field Field) (Effects, error) {
	if !field.Valid() {
		return Effects{}, fmt.Errorf("session: unknown field %q", field)
	}

	req := &PromptRequest{Field: field}
	switch field {
	case FieldTitle:
		req.Text = "what should it be called?"
		req.Placeholder = sess.Title
	case FieldArtist:
		req.Text = "who is the artist?"
		req.Placeholder = sess.Artist
	case FieldArt:
		req.Text = "send the new cover (as a photo, not a file)"
	case FieldTrimStart:
		current := "0:00"
		if sess.TrimStart > 0 {
			current = audio.FormatSeconds(sess.TrimStart)
		}
		req.Text = "trim from where?\n" + timestampHint + "\nnow: " + current
		req.TrimKeyboard = true
	case FieldTrimEnd:
		current := "end of track"
		if sess.TrimEnd != nil {
			current = audio.FormatSeconds(*sess.TrimEnd)
		}
		req.Text = "trim until where?\n" + timestampHint + "\nnow: " + current
		req.TrimKeyboard = true
	}
	return Effects{OpenPrompt: req}, nil
}

func applyText(sess *EditSession, text string) (Effects, error) {
	field, ok := sess.Editing()
	if !ok {
		return Effects{}, ErrNoActiveEdit
	}

	switch field {
	case FieldTitle, FieldArtist:
		if text == "" {
			return Effects{}, ErrUnexpectedInput
		}
		return Effects{
			Update:       &FieldUpdate{Field: field, Text: text},
			CloseEditing: true,
			Refresh:      true,
		}, nil

	case FieldTrimStart, FieldTrimEnd:
		if strings.EqualFold(strings.TrimSpace(text), NoTrimText) {
			return Effects{
				Update:       &FieldUpdate{Field: field},
				CloseEditing: true,
				Refresh:      true,
			}, nil
		}
		seconds, err := audio.ParseTimestamp(text)
		if err != nil {
			// Parse failures keep the prompt open for another attempt.
			return Effects{}, err
		}
		return Effects{
			Update:       &FieldUpdate{Field: field, Seconds: &seconds},
			CloseEditing: true,
			Refresh:      true,
		}, nil

	case FieldArt:
		// Text while a photo is expected; discard it, keep the prompt open.
		return Effects{}, ErrUnexpectedInput
	}
	return Effects{}, ErrNoActiveEdit
}
