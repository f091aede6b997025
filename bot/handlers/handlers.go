// Package handlers wires Telegram updates to the edit-session flow: audio
// uploads open sessions, inline buttons open field prompts, replies feed the
// prompts, and the done button runs the export pipeline.
package handlers

import (
	"context"
	"sync"

	"github.com/m3rciful/tagbot/bot/audio"
	"github.com/m3rciful/tagbot/bot/history"
	"github.com/m3rciful/tagbot/bot/session"
	"github.com/m3rciful/tagbot/bot/storage"
	tg "github.com/m3rciful/tagbot/core/telegram"
	"github.com/m3rciful/tagbot/core/telegram/commands"
)

// Callback keys used on the summary keyboard.
const (
	cbEdit = "edit"
	cbDone = "done"
)

// Handlers carries the edit flow's collaborators. One instance serves all
// users; per-user exclusivity comes from the session store's lock.
type Handlers struct {
	store    *session.Store
	files    *storage.Manager
	pipeline audio.Pipeline
	// history is nil when the export history feature is disabled.
	history *history.Store

	// exports tracks in-flight finalize pipelines so shutdown can drain them.
	exports sync.WaitGroup
}

// New assembles the handler set. history may be nil.
func New(store *session.Store, files *storage.Manager, pipeline audio.Pipeline, hist *history.Store) *Handlers {
	return &Handlers{
		store:    store,
		files:    files,
		pipeline: pipeline,
		history:  hist,
	}
}

// InProgress reports whether the user has an open field prompt, routing
// their text and photos to this conversation.
func (h *Handlers) InProgress(userID int64) bool {
	return h.store.InProgress(userID)
}

// Register binds commands and callbacks into the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "How this bot works",
	})
	if h.history != nil {
		reg.RegisterCommand("/history", commands.Command{
			Handler:     h.History,
			Description: "Your recent exports",
		})
	}
	_ = reg.RegisterCallback(cbEdit, h.EditCallback)
	_ = reg.RegisterCallback(cbDone, h.DoneCallback)
}

// Drain waits for in-flight exports to finish or ctx to expire.
func (h *Handlers) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.exports.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
