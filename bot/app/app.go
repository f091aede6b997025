// Package app assembles the bot: configuration, infrastructure, the audio
// toolchain, and the handler set, exposed as RunOptions for the runtime.
package app

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tagbot/bot/audio"
	"github.com/m3rciful/tagbot/bot/handlers"
	"github.com/m3rciful/tagbot/bot/history"
	"github.com/m3rciful/tagbot/bot/session"
	"github.com/m3rciful/tagbot/bot/storage"
	"github.com/m3rciful/tagbot/core/bootstrap"
	coreconfig "github.com/m3rciful/tagbot/core/config"
	tg "github.com/m3rciful/tagbot/core/telegram"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
	"github.com/m3rciful/tagbot/core/telegram/router"
)

// App is the assembled bot.
type App struct {
	cfg      *coreconfig.Config
	handlers *handlers.Handlers
}

// Build loads configuration from path and wires every component. The logger
// is live once Build returns.
func Build(path string) (*App, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New wires the application from an already loaded configuration.
func New(cfg *coreconfig.Config) (*App, error) {
	infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	files, err := storage.NewManager(cfg.Storage.TempDir, cfg.Storage.MaxFileSizeBytes())
	if err != nil {
		return nil, err
	}

	var hist *history.Store
	if infra.DB != nil {
		hist = history.NewStore(infra.DB)
	}

	pipeline := audio.NewFFmpeg(cfg.Audio.FFmpegPath, cfg.Audio.FFprobePath)
	h := handlers.New(session.NewStore(), files, pipeline, hist)

	return &App{cfg: cfg, handlers: h}, nil
}

// TelegramRunOptions builds the runtime wiring: registry, middlewares, and
// routes.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.handlers.Register(reg)

	routes := router.MessageRoutes(a.handlers, reg, router.MessageOptions{
		UnknownText:     a.handlers.StrayText,
		UnknownPhoto:    a.handlers.StrayPhoto,
		UnknownDocument: a.handlers.StrayDocument,
	})
	routes = append(routes,
		tg.Route{Endpoint: tele.OnAudio, Handler: a.handlers.OnAudio},
		router.CallbackRoute(reg, router.CallbackOptions{}),
	)

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, "Easy there, one thing at a time.")
	}

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, onLimited),
		Routes:      routes,
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			drainCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return a.handlers.Drain(drainCtx)
		},
	}, nil
}
