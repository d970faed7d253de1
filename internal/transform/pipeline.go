// Package transform runs the photo-to-song-aesthetic pipeline: resolve the
// song's visual aesthetic (cache-aside), synthesize an edit prompt from it
// and the photo's metadata, and hand both to the image-generation job.
package transform

import (
	"context"
	"encoding/base64"
	"os"

	"github.com/rs/zerolog"

	"moodshift/internal/aesthetic"
	"moodshift/internal/domain"
)

// Resolver fetches an aesthetic description when the cache has none.
type Resolver interface {
	SearchAesthetic(ctx context.Context, artist, song string) (string, error)
}

// Generator submits an edit prompt plus the base64-encoded source image and
// returns the generated image bytes.
type Generator interface {
	GenerateImage(ctx context.Context, prompt, inputImageB64 string) ([]byte, error)
}

// Credentials are the two upstream secrets the pipeline refuses to run
// without. The check sits here, not only at process startup, so on-demand
// callers (the CLI, tests) hit the same precondition.
type Credentials struct {
	GenerationAPIKey string
	VisionAPIKey     string
}

// Pipeline orchestrates the transformation. All steps fail fast; nothing is
// persisted on failure beyond a cache write that already completed.
type Pipeline struct {
	store     aesthetic.Store
	resolver  Resolver
	synth     *Synthesizer
	generator Generator
	creds     Credentials
	log       zerolog.Logger
}

func NewPipeline(store aesthetic.Store, resolver Resolver, synth *Synthesizer, generator Generator, creds Credentials, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		resolver:  resolver,
		synth:     synth,
		generator: generator,
		creds:     creds,
		log:       log,
	}
}

// Transform turns the image at imagePath into a PNG matching the song's
// aesthetic and returns the bytes verbatim from the generation service.
func (p *Pipeline) Transform(ctx context.Context, imagePath, songTitle, artistName string) ([]byte, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return nil, domain.ServiceFailure("image not found: %s", imagePath)
	}
	if p.creds.GenerationAPIKey == "" {
		return nil, domain.ServiceFailure("BFL_API_KEY not configured")
	}
	if p.creds.VisionAPIKey == "" {
		return nil, domain.ServiceFailure("OPENAI_API_KEY not configured")
	}

	aestheticText, err := p.ResolveAesthetic(ctx, artistName, songTitle)
	if err != nil {
		return nil, err
	}

	meta, err := ExtractMetadata(imagePath)
	if err != nil {
		return nil, domain.WrapService(err, "metadata extraction failed")
	}

	editPrompt, err := p.synth.Synthesize(ctx, aestheticText, meta, songTitle, artistName)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Str("song", songTitle).Str("artist", artistName).Str("prompt", editPrompt).Msg("synthesized edit prompt")

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, domain.WrapService(err, "read image")
	}

	return p.generator.GenerateImage(ctx, editPrompt, base64.StdEncoding.EncodeToString(imageBytes))
}

// ResolveAesthetic is the cache-aside lookup: check the store, search on a
// miss, and write back unless the resolver reported no visual data. It is
// shared by Transform and the aesthetic endpoint.
func (p *Pipeline) ResolveAesthetic(ctx context.Context, artistName, songTitle string) (string, error) {
	cached, ok, err := p.store.Get(ctx, artistName, songTitle)
	if err != nil {
		return "", domain.WrapService(err, "aesthetic lookup failed")
	}
	if ok {
		p.log.Info().Str("song", songTitle).Str("artist", artistName).Msg("aesthetic cache hit")
		return cached, nil
	}
	p.log.Info().Str("song", songTitle).Str("artist", artistName).Msg("aesthetic cache miss")

	description, err := p.resolver.SearchAesthetic(ctx, artistName, songTitle)
	if err != nil {
		return "", err
	}
	if !aesthetic.IsNegativeResult(description) {
		if err := p.store.Put(ctx, artistName, songTitle, description); err != nil {
			return "", domain.WrapService(err, "aesthetic cache write failed")
		}
	}
	return description, nil
}
