// Command transform runs the transformation pipeline once against a local
// image file, bypassing the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"moodshift/internal/aesthetic"
	"moodshift/internal/infra"
	"moodshift/internal/providers/flux"
	"moodshift/internal/providers/openai"
	"moodshift/internal/transform"
)

func main() {
	var (
		imageFlag  string
		songFlag   string
		artistFlag string
		outFlag    string
	)

	flag.StringVar(&imageFlag, "image", "", "path to the source image")
	flag.StringVar(&songFlag, "song", "", "song title")
	flag.StringVar(&artistFlag, "artist", "", "artist name")
	flag.StringVar(&outFlag, "out", "out.png", "path to write the transformed PNG")
	flag.Parse()

	if strings.TrimSpace(imageFlag) == "" {
		exitWithError(errors.New("-image is required"))
	}
	if strings.TrimSpace(songFlag) == "" || strings.TrimSpace(artistFlag) == "" {
		exitWithError(errors.New("-song and -artist are required"))
	}

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
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
		exitWithError(err)
	}
	defer store.Close()

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

	pipeline := transform.NewPipeline(
		store,
		openaiClient,
		transform.NewSynthesizer(openaiClient),
		fluxClient,
		transform.Credentials{GenerationAPIKey: cfg.BFLAPIKey, VisionAPIKey: cfg.OpenAIAPIKey},
		logger,
	)

	pngBytes, err := pipeline.Transform(ctx, imageFlag, songFlag, artistFlag)
	if err != nil {
		exitWithError(err)
	}

	if err := os.WriteFile(outFlag, pngBytes, 0o644); err != nil {
		exitWithError(err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(pngBytes), outFlag)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
