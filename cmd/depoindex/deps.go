package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/depolab/depoindex/internal/config"
	"github.com/depolab/depoindex/internal/embed"
	"github.com/depolab/depoindex/internal/llm"
	"github.com/depolab/depoindex/internal/store"
)

// deps bundles the wired components shared by the CLI commands.
type deps struct {
	cfg      *config.Config
	store    *store.Store
	embedder embed.Embedder
	gemini   *llm.Client
	log      *slog.Logger
}

// buildDeps loads config and constructs the store, embedder, and optional
// generative client. logOut selects where slog output goes; commands that
// render styled terminal output pass io.Discard.
func buildDeps(logOut io.Writer) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var log *slog.Logger
	if logOut == nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	} else {
		log = slog.New(slog.NewTextHandler(logOut, nil))
	}

	st, err := store.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.New(cfg.Embed.Provider, embed.Options{
		APIKey:    cfg.Embed.APIKey,
		BaseURL:   cfg.Embed.BaseURL,
		Model:     cfg.Embed.Model,
		BatchSize: cfg.Embed.BatchSize,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	// The store doubles as the embedding cache.
	embedder = embed.NewCached(embedder, st)

	var gemini *llm.Client
	if cfg.Gemini.APIKey != "" {
		gemini = llm.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	}

	return &deps{
		cfg:      cfg,
		store:    st,
		embedder: embedder,
		gemini:   gemini,
		log:      log,
	}, nil
}

func (d *deps) Close() {
	d.store.Close()
}
