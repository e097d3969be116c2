package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"reelview/internal/api"
	"reelview/internal/catalog"
	"reelview/internal/config"
	"reelview/internal/feed"
	"reelview/internal/loop"
	"reelview/internal/metrics"
	"reelview/internal/reels"
	"reelview/internal/server"
	"reelview/internal/storage"
	"reelview/internal/viewport"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	envPath := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	if err := config.LoadEnv(*envPath); err != nil {
		panic("failed to load env: " + err.Error())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", api.Version).
		Msg("starting reelview server")

	store, err := storage.NewSQLiteStorage(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Catalog.Seed {
		if _, err := catalog.Seed(ctx, store, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed catalog")
		}
	}

	if cfg.Library.Path != "" {
		importer := catalog.NewImporter(store, logger)
		author := storage.Author{ID: cfg.Library.Author, Username: cfg.Library.Name}
		if _, err := importer.ImportDir(ctx, cfg.Library.Path, author); err != nil {
			logger.Error().Err(err).Msg("library import failed")
		}
	}

	m := metrics.New()

	lp := loop.New(0)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		lp.Run(ctx)
	}()

	sessions := api.NewSessionStore(lp, store, reels.Options{
		Feed: feed.Options{
			PageSize: cfg.Feed.PageSize,
			Latency:  cfg.Feed.Latency,
			Timeout:  cfg.Feed.Timeout,
		},
		Viewport: viewport.Options{
			Threshold:  cfg.Viewport.Threshold,
			Dwell:      cfg.Viewport.Dwell,
			RetryDelay: cfg.Viewport.RetryDelay,
		},
		EffectTTL:  cfg.Effects.HeartTTL,
		MaxNotices: cfg.Sessions.MaxNotices,
	}, cfg.Sessions.Max, cfg.Sessions.TTL, logger, m)

	handler := api.NewHandler(store, sessions, lp, m, logger)
	srv := server.New(cfg, logger, handler, m)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("received shutdown signal")

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	sessions.CloseAll()
	// let the posted closes run before the loop stops
	_ = lp.Do(context.Background(), func() {})
	cancel()
	<-loopDone

	logger.Info().Msg("server stopped")
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
