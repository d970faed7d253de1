package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"moodshift/internal/aesthetic"
	httpapi "moodshift/internal/http"
	"moodshift/internal/http/handlers"
	"moodshift/internal/imagestore"
	"moodshift/internal/infra"
	"moodshift/internal/providers/flux"
	"moodshift/internal/providers/openai"
	"moodshift/internal/storage"
	"moodshift/internal/transform"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()
	store, err := aesthetic.Open(ctx, aesthetic.Config{
		Driver:        cfg.CacheDriver,
		SQLitePath:    cfg.CachePath,
		DatabaseURL:   cfg.DatabaseURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open aesthetic cache")
	}
	defer store.Close()
	logger.Info().Str("driver", cfg.CacheDriver).Msg("aesthetic cache ready")

	files, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "img"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open image storage")
	}

	openaiClient := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.CallTimeout,
	})
	fluxClient := flux.NewClient(flux.Options{
		APIKey:       cfg.BFLAPIKey,
		BaseURL:      cfg.BFLBaseURL,
		Timeout:      cfg.CallTimeout,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
	})

	images := imagestore.New(files, openaiClient, logger)
	pipeline := transform.NewPipeline(
		store,
		openaiClient,
		transform.NewSynthesizer(openaiClient),
		fluxClient,
		transform.Credentials{GenerationAPIKey: cfg.BFLAPIKey, VisionAPIKey: cfg.OpenAIAPIKey},
		logger,
	)

	app := handlers.NewApp(images, pipeline, logger)
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s:%s", cfg.Host, cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
