package handlers

import (
	"bytes"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tagbot/bot/audio"
	"github.com/m3rciful/tagbot/bot/session"
	"github.com/m3rciful/tagbot/core/logger"
	"github.com/m3rciful/tagbot/core/telegram/format"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
	"github.com/m3rciful/tagbot/core/telegram/keyboard"
)

// formatInfo renders the session summary shown above the edit keyboard. The
// cover itself travels as the photo of the summary message, not as text.
func formatInfo(sess *session.EditSession) string {
	text := "*Title:* " + format.EscapeMarkdown(sess.Title) + "\n" +
		"*Artist:* " + format.EscapeMarkdown(sess.Artist) + "\n"

	if sess.TrimRequested() {
		end := "end of track"
		if sess.TrimEnd != nil {
			end = audio.FormatSeconds(*sess.TrimEnd)
		}
		text += "*Trim:* " + audio.FormatSeconds(sess.TrimStart) + " to " + end + "\n"
	}

	text += "\nPick what to change, then press Export."
	return text
}

// buildKeyboard renders the inline edit keyboard. Trim buttons carry the
// currently set bounds so the state is visible without opening a prompt.
func buildKeyboard(sess *session.EditSession) *tele.ReplyMarkup {
	startLabel := "Start: 0:00"
	if sess.TrimStart > 0 {
		startLabel = "Start: " + audio.FormatSeconds(sess.TrimStart)
	}
	endLabel := "End: track end"
	if sess.TrimEnd != nil {
		endLabel = "End: " + audio.FormatSeconds(*sess.TrimEnd)
	}

	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "Title", Unique: cbEdit, Data: string(session.FieldTitle)},
			{Text: "Artist", Unique: cbEdit, Data: string(session.FieldArtist)},
			{Text: "Cover", Unique: cbEdit, Data: string(session.FieldArt)},
		},
		[]keyboard.InlineBtn{
			{Text: startLabel, Unique: cbEdit, Data: string(session.FieldTrimStart)},
			{Text: endLabel, Unique: cbEdit, Data: string(session.FieldTrimEnd)},
		},
		[]keyboard.InlineBtn{
			{Text: "Export", Unique: cbDone},
		},
	)
}

// displayArt renders the session's cover into a Telegram-displayable JPEG,
// or nil when there is no usable art.
func (h *Handlers) displayArt(c tele.Context, sess *session.EditSession) []byte {
	display, err := audio.RenderArtForDisplay(sess.AlbumArt)
	if err != nil {
		logger.SESS.LogAttrs(tghelpers.BuildContext(c), slog.LevelWarn, "art_render_failed",
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return display
}

// sendInfoMessage posts the summary with the edit keyboard. When the session
// carries cover art the summary is a photo of that art with the summary as
// its caption, so the user sees what will be embedded. Returns the sent
// message and whether it is a photo.
func (h *Handlers) sendInfoMessage(c tele.Context, sess *session.EditSession) (*tele.Message, bool, error) {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: buildKeyboard(sess)}
	if display := h.displayArt(c, sess); display != nil {
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(display)),
			Caption: formatInfo(sess),
		}
		msg, err := c.Bot().Send(tele.ChatID(sess.ChatID), photo, opts)
		return msg, true, err
	}
	msg, err := c.Bot().Send(tele.ChatID(sess.ChatID), formatInfo(sess), opts)
	return msg, false, err
}

// refreshInfoMessage re-renders the summary in place. Telegram cannot edit a
// text message into a photo or back, so when the cover appears or disappears
// the old summary is deleted and a fresh one posted. Edits that change
// nothing are not an error.
func (h *Handlers) refreshInfoMessage(c tele.Context, sess *session.EditSession) {
	if sess.InfoMessageID == 0 {
		return
	}

	display := h.displayArt(c, sess)
	if (display != nil) != sess.InfoHasPhoto {
		h.deleteQuiet(c, sess.ChatID, sess.InfoMessageID)
		msg, withPhoto, err := h.sendInfoMessage(c, sess)
		if err != nil {
			logger.SESS.LogAttrs(tghelpers.BuildContext(c), slog.LevelWarn, "info_refresh_failed",
				slog.String("event", "repost"),
				slog.Int64("user_id", sess.UserID),
				slog.String("err", err.Error()),
			)
			return
		}
		h.store.SetInfoMessage(sess.UserID, msg.ID, withPhoto)
		return
	}

	stored := tghelpers.StoredMessage(sess.ChatID, sess.InfoMessageID)
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: buildKeyboard(sess)}
	var err error
	if display != nil {
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(display)),
			Caption: formatInfo(sess),
		}
		_, err = c.Bot().EditMedia(stored, photo, opts)
	} else {
		_, err = c.Bot().Edit(stored, formatInfo(sess), opts)
	}
	if err != nil && !tghelpers.IsNotModified(err) {
		logger.SESS.LogAttrs(tghelpers.BuildContext(c), slog.LevelWarn, "info_refresh_failed",
			slog.String("event", "refresh"),
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
	}
}

// deleteQuiet drops a message by id, logging failures at debug only.
func (h *Handlers) deleteQuiet(c tele.Context, chatID int64, messageID int) {
	if err := tghelpers.DeleteMessage(c.Bot(), chatID, messageID); err != nil {
		logger.SESS.LogAttrs(tghelpers.BuildContext(c), slog.LevelDebug, "delete_failed",
			slog.String("event", "cleanup"),
			slog.Int("message_id", messageID),
			slog.String("err", err.Error()),
		)
	}
}

// clearErrorMessage removes the shown validation error, if any.
func (h *Handlers) clearErrorMessage(c tele.Context, sess *session.EditSession) {
	if sess.ErrorMessageID == 0 {
		return
	}
	h.deleteQuiet(c, sess.ChatID, sess.ErrorMessageID)
	h.store.ClearErrorMessage(sess.UserID)
}

// replaceErrorMessage swaps the shown validation error for a new one so at
// most one error notice is visible per session.
func (h *Handlers) replaceErrorMessage(c tele.Context, sess *session.EditSession, text string) {
	h.clearErrorMessage(c, sess)
	msg, err := c.Bot().Send(tele.ChatID(sess.ChatID), text)
	if err != nil {
		logger.SESS.LogAttrs(tghelpers.BuildContext(c), slog.LevelWarn, "error_notice_failed",
			slog.String("event", "notice"),
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
		return
	}
	h.store.SetErrorMessage(sess.UserID, msg.ID)
}
