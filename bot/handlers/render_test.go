package handlers

import (
	"strings"
	"testing"

	"github.com/m3rciful/tagbot/bot/session"
)

func sampleSession() *session.EditSession {
	return &session.EditSession{
		UserID:       1,
		ChatID:       1,
		FilePath:     "/tmp/abc.mp3",
		OriginalName: "upload.mp3",
		Title:        "Some_Song",
		Artist:       "An*Artist",
	}
}

func TestFormatInfoEscapesMarkdown(t *testing.T) {
	text := formatInfo(sampleSession())
	if strings.Contains(text, "Some_Song") || strings.Contains(text, "An*Artist") {
		t.Fatalf("markup characters not escaped:\n%s", text)
	}
	if !strings.Contains(text, `Some\_Song`) || !strings.Contains(text, `An\*Artist`) {
		t.Fatalf("escaped values missing:\n%s", text)
	}
}

func TestFormatInfoTrimLine(t *testing.T) {
	sess := sampleSession()
	if strings.Contains(formatInfo(sess), "*Trim:*") {
		t.Fatal("trim line shown with no trim requested")
	}

	sess.TrimStart = 83.5
	text := formatInfo(sess)
	if !strings.Contains(text, "1:23.5 to end of track") {
		t.Fatalf("start-only trim line wrong:\n%s", text)
	}

	end := 201.5
	sess.TrimEnd = &end
	text = formatInfo(sess)
	if !strings.Contains(text, "1:23.5 to 3:21.5") {
		t.Fatalf("full trim line wrong:\n%s", text)
	}
}

func TestBuildKeyboardLabels(t *testing.T) {
	sess := sampleSession()
	markup := buildKeyboard(sess)

	if got := len(markup.InlineKeyboard); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
	if got := markup.InlineKeyboard[1][0].Text; got != "Start: 0:00" {
		t.Fatalf("default start label = %q", got)
	}
	if got := markup.InlineKeyboard[1][1].Text; got != "End: track end" {
		t.Fatalf("default end label = %q", got)
	}

	sess.TrimStart = 12
	end := 90.0
	sess.TrimEnd = &end
	markup = buildKeyboard(sess)
	if got := markup.InlineKeyboard[1][0].Text; got != "Start: 0:12" {
		t.Fatalf("set start label = %q", got)
	}
	if got := markup.InlineKeyboard[1][1].Text; got != "End: 1:30" {
		t.Fatalf("set end label = %q", got)
	}
}

func TestExportFileName(t *testing.T) {
	sess := *sampleSession()
	if got := exportFileName(sess); got != "upload.mp3" {
		t.Fatalf("exportFileName = %q", got)
	}

	// Editing the title must not rename the user's download.
	sess.Title = "Completely Different"
	if got := exportFileName(sess); got != "upload.mp3" {
		t.Fatalf("renamed after title edit: %q", got)
	}

	sess.OriginalName = ""
	if got := exportFileName(sess); got != "track.mp3" {
		t.Fatalf("last-resort name = %q", got)
	}
}
