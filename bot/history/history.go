// Package history records finished exports in Postgres so users can list
// what they produced. It is optional wiring: when the database is disabled
// the bot runs without it and nothing here is constructed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/tagbot/core/logger"
)

// ExportRecord is one finished export.
type ExportRecord struct {
	ID           int64           `db:"id"`
	UserID       int64           `db:"user_id"`
	OriginalName string          `db:"original_name"`
	Title        string          `db:"title"`
	Artist       string          `db:"artist"`
	TrimStart    float64         `db:"trim_start"`
	TrimEnd      sql.NullFloat64 `db:"trim_end"`
	ExportedAt   time.Time       `db:"exported_at"`
}

// Trimmed reports whether either trim bound was set for this export.
func (r ExportRecord) Trimmed() bool {
	return r.TrimStart > 0 || r.TrimEnd.Valid
}

// Store persists export records.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// RecordExport inserts one record. ExportedAt is stamped server-side.
func (s *Store) RecordExport(ctx context.Context, rec ExportRecord) error {
	const q = `
		INSERT INTO exports (user_id, original_name, title, artist, trim_start, trim_end)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, q,
		rec.UserID, rec.OriginalName, rec.Title, rec.Artist, rec.TrimStart, rec.TrimEnd)
	if err != nil {
		return fmt.Errorf("history: record export: %w", err)
	}
	logger.HIST.LogAttrs(ctx, slog.LevelDebug, "export_recorded",
		slog.String("event", "record"),
		slog.Int64("user_id", rec.UserID),
		slog.String("title", logger.SanitizeLimit(rec.Title, 64)),
	)
	return nil
}

// RecentExports returns the user's latest exports, newest first.
func (s *Store) RecentExports(ctx context.Context, userID int64, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT id, user_id, original_name, title, artist, trim_start, trim_end, exported_at
		FROM exports
		WHERE user_id = $1
		ORDER BY exported_at DESC
		LIMIT $2`
	var recs []ExportRecord
	if err := s.db.SelectContext(ctx, &recs, q, userID, limit); err != nil {
		return nil, fmt.Errorf("history: recent exports: %w", err)
	}
	return recs, nil
}
