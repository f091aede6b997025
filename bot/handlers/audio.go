package handlers

import (
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tagbot/bot/session"
	"github.com/m3rciful/tagbot/core/logger"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
)

// OnAudio opens a fresh edit session for an uploaded track. Any previous
// session of the same user is torn down first: its prompt, error notice, and
// summary messages are deleted, its working files removed, and only then the
// new session is created, so a half-replaced session is never observable.
func (h *Handlers) OnAudio(c tele.Context) error {
	a := c.Message().Audio
	if a == nil {
		return nil
	}
	userID := c.Sender().ID
	chatID := c.Chat().ID
	ctx := tghelpers.BuildContext(c)

	if err := h.files.CheckSize(a.FileSize); err != nil {
		limitMB := h.files.MaxBytes() / (1 << 20)
		return tghelpers.SendText(c, fmt.Sprintf(
			"That file is too big. The limit is %d MB.", limitMB))
	}

	unlock := h.store.Lock(userID)
	defer unlock()

	if old := h.store.Get(userID); old != nil {
		if old.Finalizing {
			return tghelpers.SendText(c,
				"Your previous track is still exporting. Send this one again when it finishes.")
		}
		h.teardown(c, old)
	}

	status, err := c.Bot().Send(tele.ChatID(chatID), "Downloading...")
	if err != nil {
		return err
	}

	path, err := h.files.DownloadAudio(c.Bot(), a)
	if err != nil {
		h.deleteQuiet(c, chatID, status.ID)
		logger.SESS.LogAttrs(ctx, slog.LevelError, "download_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, "Couldn't download that file. Please try again.")
	}

	meta, err := h.pipeline.ExtractMetadata(ctx, path)
	if err != nil {
		h.deleteQuiet(c, chatID, status.ID)
		h.files.Remove(path)
		logger.SESS.LogAttrs(ctx, slog.LevelError, "probe_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, "That doesn't look like an audio file I can read.")
	}

	art, err := h.pipeline.ExtractArt(ctx, path)
	if err != nil {
		logger.SESS.LogAttrs(ctx, slog.LevelWarn, "art_extract_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		art = nil
	}

	sess := &session.EditSession{
		UserID:       userID,
		ChatID:       chatID,
		FilePath:     path,
		OriginalName: a.FileName,
		Title:        meta.Title,
		Artist:       meta.Artist,
		AlbumArt:     art,
	}

	info, withPhoto, err := h.sendInfoMessage(c, sess)
	if err != nil {
		h.deleteQuiet(c, chatID, status.ID)
		h.files.Remove(path)
		return err
	}
	sess.InfoMessageID = info.ID
	sess.InfoHasPhoto = withPhoto

	if err := h.store.Create(sess); err != nil {
		// The slot was emptied above while holding the lock, so this only
		// fires on a programming error.
		h.deleteQuiet(c, chatID, info.ID)
		h.deleteQuiet(c, chatID, status.ID)
		h.files.Remove(path)
		return err
	}

	h.deleteQuiet(c, chatID, status.ID)
	logger.SESS.LogAttrs(ctx, slog.LevelInfo, "session_opened",
		slog.Int64("user_id", userID),
		slog.String("file", logger.SanitizeLimit(a.FileName, 80)),
		slog.Int64("size", a.FileSize),
	)
	return nil
}

// teardown removes every trace of a session: its transport messages, its
// working files, then the record itself. Caller holds the user's lock.
func (h *Handlers) teardown(c tele.Context, sess *session.EditSession) {
	if sess.Prompt != nil {
		h.deleteQuiet(c, sess.ChatID, sess.Prompt.MessageID)
	}
	if sess.ErrorMessageID != 0 {
		h.deleteQuiet(c, sess.ChatID, sess.ErrorMessageID)
	}
	if sess.InfoMessageID != 0 {
		h.deleteQuiet(c, sess.ChatID, sess.InfoMessageID)
	}
	h.files.Remove(h.files.TrimmedPath(sess.FilePath))
	h.files.Remove(sess.FilePath)
	h.store.Delete(sess.UserID)
}

// StrayPhoto drops photos that arrive with no open cover prompt. The stray
// message is deleted so the chat stays a clean summary-plus-prompt surface.
func (h *Handlers) StrayPhoto(c tele.Context) error {
	h.deleteQuiet(c, c.Chat().ID, c.Message().ID)
	return nil
}

// StrayDocument nudges users who send audio as a generic file. Telegram only
// exposes tags and duration for uploads sent as audio.
func (h *Handlers) StrayDocument(c tele.Context) error {
	h.deleteQuiet(c, c.Chat().ID, c.Message().ID)
	return tghelpers.SendText(c,
		"Please send the track as audio, not as a file.")
}

// StrayText drops text that is neither a command nor a prompt reply.
func (h *Handlers) StrayText(c tele.Context) error {
	h.deleteQuiet(c, c.Chat().ID, c.Message().ID)
	return nil
}
