package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"nexus-activity/internal/config"
	"nexus-activity/internal/ledger"
	"nexus-activity/internal/logging"
	"nexus-activity/internal/store"
	"nexus-activity/internal/usersync"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	st, err := store.New(cfg.Server.PostgresDSN, store.Seed{
		Fragments: cfg.Sync.StartingFragments,
		Lives:     cfg.Sync.StartingLives,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.Bootstrap(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	orch := usersync.New(st, ledger.New(st), cfg.Sync)
	r := newRouter(st, orch)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
