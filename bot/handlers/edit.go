package handlers

import (
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tagbot/bot/audio"
	"github.com/m3rciful/tagbot/bot/session"
	"github.com/m3rciful/tagbot/core/logger"
	"github.com/m3rciful/tagbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
	"github.com/m3rciful/tagbot/core/telegram/keyboard"
)

// EditCallback opens a prompt for the field named in the callback payload.
// Pressing another edit button while a prompt is already open abandons the
// old prompt and opens the new one.
func (h *Handlers) EditCallback(c tele.Context) error {
	_ = c.Respond()
	userID := c.Sender().ID

	unlock := h.store.Lock(userID)
	defer unlock()

	sess := h.store.Get(userID)
	if sess == nil {
		// Keyboard outlived its session; drop it and explain.
		h.deleteQuiet(c, c.Chat().ID, c.Message().ID)
		return tghelpers.SendText(c, "That session is gone. Send the audio again to start over.")
	}

	field := session.Field(callbacks.CallbackPayload(c))
	fx, err := session.Apply(sess, session.SelectField{Field: field})
	if err != nil {
		if errors.Is(err, session.ErrFinalizeInFlight) {
			return tghelpers.SendText(c, "Export in progress, hold on.")
		}
		return err
	}

	if sess.Prompt != nil {
		h.deleteQuiet(c, sess.ChatID, sess.Prompt.MessageID)
		h.store.EndEditing(userID)
	}
	h.clearErrorMessage(c, sess)

	req := fx.OpenPrompt
	var markup *tele.ReplyMarkup
	if req.TrimKeyboard {
		markup = keyboard.ReplyButtons([]string{session.NoTrimText})
	} else {
		markup = keyboard.ForceReply(req.Placeholder)
	}

	prompt, err := c.Bot().Send(tele.ChatID(sess.ChatID), req.Text,
		&tele.SendOptions{ReplyMarkup: markup})
	if err != nil {
		return err
	}
	if err := h.store.BeginEditing(userID, req.Field, prompt.ID); err != nil {
		h.deleteQuiet(c, sess.ChatID, prompt.ID)
		return err
	}

	logger.SESS.LogAttrs(tghelpers.BuildContext(c), slog.LevelDebug, "prompt_opened",
		slog.Int64("user_id", userID),
		slog.String("field", string(req.Field)),
	)
	return nil
}

// HandleText consumes a reply to the open prompt. The user's message is
// always deleted; on success the prompt closes and the summary refreshes, on
// a bad timestamp the prompt stays open behind a fresh error notice.
func (h *Handlers) HandleText(c tele.Context) error {
	userID := c.Sender().ID

	unlock := h.store.Lock(userID)
	defer unlock()

	sess := h.store.Get(userID)
	if sess == nil {
		return nil
	}

	fx, err := session.Apply(sess, session.TextInput{Text: c.Text()})
	if err != nil {
		h.deleteQuiet(c, sess.ChatID, c.Message().ID)
		switch {
		case errors.Is(err, audio.ErrInvalidTimestamp):
			h.replaceErrorMessage(c, sess,
				"Couldn't read that timestamp. Use seconds, M:S, or H:M:S, like 23 or 1:23.5.")
			return nil
		case errors.Is(err, session.ErrUnexpectedInput):
			h.replaceErrorMessage(c, sess,
				"I need a photo for the cover. Send one, or pick another field.")
			return nil
		case errors.Is(err, session.ErrFinalizeInFlight),
			errors.Is(err, session.ErrNoActiveEdit):
			return nil
		}
		return err
	}

	h.applyAndClose(c, sess, fx, c.Message().ID)
	return nil
}

// HandlePhoto consumes a photo while the cover prompt is open.
func (h *Handlers) HandlePhoto(c tele.Context) error {
	userID := c.Sender().ID

	unlock := h.store.Lock(userID)
	defer unlock()

	sess := h.store.Get(userID)
	if sess == nil {
		return nil
	}

	if field, ok := sess.Editing(); !ok || field != session.FieldArt {
		h.deleteQuiet(c, sess.ChatID, c.Message().ID)
		h.replaceErrorMessage(c, sess,
			"I'm waiting for text here. Send a photo after pressing Cover.")
		return nil
	}

	photo := c.Message().Photo
	if photo == nil {
		return nil
	}
	data, err := h.files.DownloadPhotoBytes(c.Bot(), photo)
	if err != nil {
		h.deleteQuiet(c, sess.ChatID, c.Message().ID)
		h.replaceErrorMessage(c, sess, "Couldn't fetch that photo. Try sending it again.")
		return nil
	}

	fx, err := session.Apply(sess, session.PhotoInput{Data: data})
	if err != nil {
		h.deleteQuiet(c, sess.ChatID, c.Message().ID)
		return nil
	}

	h.applyAndClose(c, sess, fx, c.Message().ID)
	return nil
}

// applyAndClose performs the accepted-input effects: persist the update,
// close the prompt, drop the consumed message and any error notice, refresh
// the summary. Caller holds the user's lock.
func (h *Handlers) applyAndClose(c tele.Context, sess *session.EditSession, fx session.Effects, consumedID int) {
	if fx.Update != nil {
		h.store.ApplyUpdate(sess.UserID, *fx.Update)
	}
	if fx.CloseEditing && sess.Prompt != nil {
		h.deleteQuiet(c, sess.ChatID, sess.Prompt.MessageID)
		h.store.EndEditing(sess.UserID)
	}
	h.clearErrorMessage(c, sess)
	h.deleteQuiet(c, sess.ChatID, consumedID)
	if fx.Refresh {
		h.refreshInfoMessage(c, sess)
	}
}
