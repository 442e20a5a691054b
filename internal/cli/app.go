// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"math"

	"github.com/pkg/errors"

	"github.com/jeranaias/unirag-tui/internal/admin"
	"github.com/jeranaias/unirag-tui/internal/api"
	"github.com/jeranaias/unirag-tui/internal/chat"
	"github.com/jeranaias/unirag-tui/internal/config"
	"github.com/jeranaias/unirag-tui/internal/conversation"
	"github.com/jeranaias/unirag-tui/internal/storage"
)

// App wires the client components together for one process.
type App struct {
	Config *config.Config
	KV     storage.KV
	Store  *conversation.Store
	Client *api.Client
	Chat   *chat.Controller
	Admin  *admin.Controller
}

// NewApp opens local state and builds the controllers described by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	dir, err := cfg.StateDir()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	kv, err := storage.Open(cfg.Storage.Backend, dir)
	if err != nil {
		return nil, errors.Wrap(err, "open local state")
	}

	client := api.NewClient(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout).
		WithMaxRetries(cfg.API.MaxRetries)
	if cfg.API.RateLimit > 0 {
		client = client.WithRateLimit(cfg.API.RateLimit, int(math.Ceil(cfg.API.RateLimit)))
	}

	store := conversation.NewStore(kv)
	store.Initialize()

	return &App{
		Config: cfg,
		KV:     kv,
		Store:  store,
		Client: client,
		Chat:   chat.NewController(store, client, chat.Options{UserID: cfg.Chat.UserID}),
		Admin: admin.NewController(kv, client, admin.Options{
			UpdatedBy:         cfg.Admin.UpdatedBy,
			FeedbackLimit:     cfg.Admin.FeedbackLimit,
			TopQuestionsLimit: cfg.Admin.TopQuestionsLimit,
			RefreshInterval:   cfg.Admin.RefreshInterval,
		}),
	}, nil
}

// Close waits for pending feedback, stops admin timers and closes storage.
func (a *App) Close() error {
	a.Chat.Wait()
	a.Admin.Close()
	return a.KV.Close()
}
