// Package storage owns the working copies of user audio under a temp
// directory: downloading uploads from Telegram, naming them collision-free,
// and cleaning them up when a session ends.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tagbot/core/logger"
)

// ErrFileTooLarge rejects uploads above the configured ceiling before any
// bytes are pulled from Telegram.
var ErrFileTooLarge = errors.New("storage: file exceeds the size limit")

const defaultAudioExt = ".mp3"

// Manager keeps working audio files in a dedicated directory. Each download
// gets a random name; the original extension is preserved because downstream
// processing derives the container format from it.
type Manager struct {
	dir      string
	maxBytes int64
}

// NewManager ensures dir exists and returns a Manager bounded by maxBytes
// (0 disables the size check).
func NewManager(dir string, maxBytes int64) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("storage: empty temp dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create temp dir: %w", err)
	}
	return &Manager{dir: dir, maxBytes: maxBytes}, nil
}

// MaxBytes returns the configured size ceiling, 0 if unlimited.
func (m *Manager) MaxBytes() int64 { return m.maxBytes }

// CheckSize validates a declared upload size against the ceiling.
func (m *Manager) CheckSize(size int64) error {
	if m.maxBytes > 0 && size > m.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, m.maxBytes)
	}
	return nil
}

// DownloadAudio pulls the uploaded track to local disk and returns its path.
// The caller owns the file from here on and must Remove it eventually.
func (m *Manager) DownloadAudio(b tele.API, a *tele.Audio) (string, error) {
	if err := m.CheckSize(a.FileSize); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(a.FileName))
	if ext == "" {
		ext = defaultAudioExt
	}
	path := filepath.Join(m.dir, uuid.NewString()+ext)

	if err := b.Download(&a.File, path); err != nil {
		return "", fmt.Errorf("storage: download audio: %w", err)
	}

	logger.STORE.LogAttrs(logger.Background(), slog.LevelDebug, "audio_downloaded",
		slog.String("event", "download"),
		slog.String("path", path),
		slog.Int64("size", a.FileSize),
		slog.String("name", a.FileName),
	)
	return path, nil
}

// DownloadPhotoBytes fetches a photo into memory. Cover art stays small, so
// buffering it whole keeps the session model simple.
func (m *Manager) DownloadPhotoBytes(b tele.API, p *tele.Photo) ([]byte, error) {
	rc, err := b.File(&p.File)
	if err != nil {
		return nil, fmt.Errorf("storage: open photo: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: read photo: %w", err)
	}
	return data, nil
}

// TrimmedPath derives the sibling path a trimmed rendition of src is written
// to, keeping the extension so the container format carries over.
func (m *Manager) TrimmedPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + ".trimmed" + ext
}

// Remove deletes a working file. A missing file is fine: cleanup paths may
// overlap after failed finalizes.
func (m *Manager) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.STORE.LogAttrs(logger.Background(), slog.LevelWarn, "remove_failed",
			slog.String("event", "cleanup"),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
	}
}
