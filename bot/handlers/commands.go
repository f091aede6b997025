package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tagbot/bot/audio"
	"github.com/m3rciful/tagbot/core/telegram/format"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
)

// Start explains the flow. HTML here keeps the help text free of characters
// that would need Markdown escaping.
func (h *Handlers) Start(c tele.Context) error {
	text := "Send me an audio file and I'll let you edit its <b>title</b>, " +
		"<b>artist</b>, and <b>cover art</b>, or trim it, before sending it back.\n\n" +
		"Timestamps for trimming can be seconds (23), minutes (1:23), " +
		"or hours (1:01:23), with decimals allowed in the last part."
	return tghelpers.SendHTML(c, text)
}

// History lists the user's recent exports.
func (h *Handlers) History(c tele.Context) error {
	if h.history == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	recs, err := h.history.RecentExports(ctx, c.Sender().ID, 10)
	if err != nil {
		return tghelpers.SendText(c, "Couldn't load your history right now.")
	}
	if len(recs) == 0 {
		return tghelpers.SendText(c, "No exports yet. Send me an audio file to make one.")
	}

	var b strings.Builder
	b.WriteString("*Your recent exports:*\n")
	for _, rec := range recs {
		title := rec.Title
		if title == "" {
			title = audio.UnknownTag
		}
		artist := rec.Artist
		if artist == "" {
			artist = audio.UnknownTag
		}
		fmt.Fprintf(&b, "%s, %s (%s)",
			format.EscapeMarkdown(artist),
			format.EscapeMarkdown(title),
			rec.ExportedAt.Format("Jan 2"),
		)
		if rec.Trimmed() {
			b.WriteString(" (trimmed)")
		}
		b.WriteString("\n")
	}
	return tghelpers.SendMD(c, b.String())
}
