package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tagbot/bot/audio"
	"github.com/m3rciful/tagbot/bot/history"
	"github.com/m3rciful/tagbot/bot/session"
	"github.com/m3rciful/tagbot/core/logger"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
	"github.com/m3rciful/tagbot/core/telegram/keyboard"
)

// DoneCallback runs the export: trim if requested, rewrite tags and cover,
// upload the result, then dissolve the session. The user's lock is held only
// around state transitions, not across the ffmpeg and upload work, so the
// Finalizing flag is what rejects events arriving mid-export.
func (h *Handlers) DoneCallback(c tele.Context) error {
	_ = c.Respond()
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	unlock := h.store.Lock(userID)
	sess := h.store.Get(userID)
	if sess == nil {
		unlock()
		h.deleteQuiet(c, c.Chat().ID, c.Message().ID)
		return tghelpers.SendText(c, "That session is gone. Send the audio again to start over.")
	}

	if _, err := session.Apply(sess, session.Finalize{}); err != nil {
		unlock()
		if errors.Is(err, session.ErrFinalizeInFlight) {
			return tghelpers.SendText(c, "Already exporting this one, hold on.")
		}
		return err
	}

	if sess.TrimEnd != nil && sess.TrimStart >= *sess.TrimEnd {
		h.replaceErrorMessage(c, sess,
			"The trim start must come before the trim end. Fix one of them first.")
		unlock()
		return nil
	}

	if sess.Prompt != nil {
		h.deleteQuiet(c, sess.ChatID, sess.Prompt.MessageID)
		h.store.EndEditing(userID)
	}
	h.clearErrorMessage(c, sess)
	h.store.SetFinalizing(userID, true)
	snapshot := *sess
	unlock()

	h.exports.Add(1)
	defer h.exports.Done()

	start := time.Now()
	err := h.export(ctx, c, snapshot)
	if err != nil {
		// The session and its working file survive so the user can adjust
		// and press Export again.
		unlock = h.store.Lock(userID)
		h.store.SetFinalizing(userID, false)
		unlock()

		logger.SESS.LogAttrs(ctx, slog.LevelError, "export_failed",
			slog.Int64("user_id", userID),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return nil
	}

	unlock = h.store.Lock(userID)
	if cur := h.store.Get(userID); cur != nil {
		h.files.Remove(h.files.TrimmedPath(cur.FilePath))
		h.files.Remove(cur.FilePath)
		h.store.Delete(userID)
	}
	unlock()

	logger.SESS.LogAttrs(ctx, slog.LevelInfo, "export_done",
		slog.Int64("user_id", userID),
		slog.String("title", logger.SanitizeLimit(snapshot.Title, 80)),
		slog.Bool("trimmed", snapshot.TrimRequested()),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// export runs the pipeline over a snapshot of the session. Any error is
// reported to the user before returning; the caller only rolls back state.
func (h *Handlers) export(ctx context.Context, c tele.Context, sess session.EditSession) error {
	// The status message also dismisses a reply keyboard left over from an
	// abandoned trim prompt.
	status, statusErr := c.Bot().Send(tele.ChatID(sess.ChatID), "Exporting...",
		&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
	if statusErr == nil {
		defer h.deleteQuiet(c, sess.ChatID, status.ID)
	}

	uploadPath := sess.FilePath
	if sess.TrimRequested() {
		trimmed := h.files.TrimmedPath(sess.FilePath)
		if err := h.pipeline.Trim(ctx, sess.FilePath, trimmed, sess.TrimStart, sess.TrimEnd); err != nil {
			h.files.Remove(trimmed)
			_ = tghelpers.SendText(c, "Trimming failed. Check the trim bounds and try again.")
			return err
		}
		uploadPath = trimmed
	}

	meta := audio.Metadata{Title: sess.Title, Artist: sess.Artist}
	if err := h.pipeline.ApplyMetadata(ctx, uploadPath, meta, sess.AlbumArt); err != nil {
		if uploadPath != sess.FilePath {
			h.files.Remove(uploadPath)
		}
		_ = tghelpers.SendText(c, "Couldn't write the new tags. Try again in a moment.")
		return err
	}

	thumb, err := audio.RenderArtForDisplay(sess.AlbumArt)
	if err != nil {
		logger.AUDIO.LogAttrs(ctx, slog.LevelWarn, "thumb_render_failed",
			slog.String("err", err.Error()),
		)
		thumb = nil
	}

	result := &tele.Audio{
		File:      tele.FromDisk(uploadPath),
		Title:     sess.Title,
		Performer: sess.Artist,
		FileName:  exportFileName(sess),
	}
	if thumb != nil {
		result.Thumbnail = &tele.Photo{File: tele.FromReader(bytes.NewReader(thumb))}
	}

	if _, err := c.Bot().Send(tele.ChatID(sess.ChatID), result); err != nil {
		if uploadPath != sess.FilePath {
			h.files.Remove(uploadPath)
		}
		_ = tghelpers.SendText(c, "Uploading the result failed. Press Export to retry.")
		return err
	}

	h.deleteQuiet(c, sess.ChatID, sess.InfoMessageID)
	h.recordExport(ctx, sess)
	return nil
}

// exportFileName names the uploaded file after the file the user sent, so
// re-tagging never renames their download. Uploads forwarded without a file
// name fall back to a generic one with the working extension.
func exportFileName(sess session.EditSession) string {
	if name := strings.TrimSpace(sess.OriginalName); name != "" {
		return name
	}
	return "track" + filepath.Ext(sess.FilePath)
}

// recordExport writes the history row when the feature is enabled. History
// failures never fail an export.
func (h *Handlers) recordExport(ctx context.Context, sess session.EditSession) {
	if h.history == nil {
		return
	}
	recCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rec := history.ExportRecord{
		UserID:       sess.UserID,
		OriginalName: sess.OriginalName,
		Title:        sess.Title,
		Artist:       sess.Artist,
		TrimStart:    sess.TrimStart,
	}
	if sess.TrimEnd != nil {
		rec.TrimEnd = sql.NullFloat64{Float64: *sess.TrimEnd, Valid: true}
	}
	err := h.history.RecordExport(recCtx, rec)
	if err != nil {
		logger.HIST.LogAttrs(ctx, slog.LevelWarn, "record_failed",
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
	}
}
