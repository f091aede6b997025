// Package session tracks the one in-flight audio edit conversation each user
// may have: which working file it owns, the pending tag/trim changes, and
// which prompt (if any) is currently open.
package session

// Field identifies which editable attribute a prompt is collecting.
type Field string

const (
	FieldTitle     Field = "title"
	FieldArtist    Field = "artist"
	FieldArt       Field = "art"
	FieldTrimStart Field = "trim_start"
	FieldTrimEnd   Field = "trim_end"
)

// Valid reports whether f names a known editable field.
func (f Field) Valid() bool {
	switch f {
	case FieldTitle, FieldArtist, FieldArt, FieldTrimStart, FieldTrimEnd:
		return true
	}
	return false
}

// Prompt ties an open editing field to the transport message asking for it.
// The two live and die together: a session either has both or neither, which
// is why they are one value instead of two nullable fields.
type Prompt struct {
	Field     Field
	MessageID int
}

// EditSession is the per-user record of in-progress metadata/trim edits.
// It exclusively owns the working copy at FilePath and the AlbumArt buffer
// until the session ends.
type EditSession struct {
	UserID int64
	ChatID int64

	FilePath     string
	OriginalName string

	Title    string
	Artist   string
	AlbumArt []byte

	// TrimStart of 0 means no trim from the start; a nil TrimEnd means the
	// track keeps its original ending.
	TrimStart float64
	TrimEnd   *float64

	// InfoMessageID points at the summary message carrying the edit keyboard.
	InfoMessageID int
	// InfoHasPhoto records whether that message is a photo. Telegram cannot
	// edit a text message into a media one, so a mismatch forces a repost.
	InfoHasPhoto bool
	// ErrorMessageID points at the currently shown validation error, 0 if none.
	ErrorMessageID int
	// Prompt is non-nil while a field edit is open.
	Prompt *Prompt

	// Finalizing marks an export in flight; all further events for this user
	// are rejected until it completes.
	Finalizing bool
}

// Editing returns the open field, if any.
func (s *EditSession) Editing() (Field, bool) {
	if s == nil || s.Prompt == nil {
		return "", false
	}
	return s.Prompt.Field, true
}

// TrimRequested reports whether either trim bound differs from its default.
func (s *EditSession) TrimRequested() bool {
	return s.TrimStart > 0 || s.TrimEnd != nil
}
