// Package imagestore owns uploaded photos: it normalizes them to JPEG,
// has the vision model describe them once at ingest, and keeps the
// description in a JSON sidecar next to the image file.
package imagestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"moodshift/internal/domain"
	"moodshift/internal/prompts"
	"moodshift/internal/storage"
)

// maxVisionEdge bounds the thumbnail sent to the vision model; the full
// image stays on disk untouched.
const maxVisionEdge = 1024

// VisionService describes an image from its base64-encoded bytes.
type VisionService interface {
	DescribeImage(ctx context.Context, imageB64, instruction string) (string, error)
}

// Sidecar is the JSON document stored alongside each image.
type Sidecar struct {
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists uploaded images and their vision descriptions.
type Store struct {
	files  *storage.FileStore
	vision VisionService
	log    zerolog.Logger
}

func New(files *storage.FileStore, vision VisionService, log zerolog.Logger) *Store {
	return &Store{files: files, vision: vision, log: log}
}

// Put decodes and stores an uploaded image, asks the vision model for a
// description, and writes the sidecar. Undecodable uploads are rejected
// with domain.ErrInvalidImage before anything touches disk.
func (s *Store) Put(ctx context.Context, data []byte) (uuid.UUID, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrInvalidImage, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return uuid.Nil, fmt.Errorf("imagestore: encode jpeg: %w", err)
	}

	id := uuid.New()
	if _, err := s.files.Write(ctx, id.String()+".jpg", buf.Bytes()); err != nil {
		return uuid.Nil, err
	}
	s.log.Info().Str("image_id", id.String()).Int("bytes", buf.Len()).Msg("stored original")

	description, err := s.describe(ctx, img)
	if err != nil {
		return uuid.Nil, err
	}
	s.log.Info().Str("image_id", id.String()).Int("chars", len(description)).Msg("described image")

	sidecar, err := json.Marshal(Sidecar{Description: description, CreatedAt: time.Now().UTC()})
	if err != nil {
		return uuid.Nil, fmt.Errorf("imagestore: encode sidecar: %w", err)
	}
	if _, err := s.files.Write(ctx, id.String()+".json", sidecar); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

// Random returns one stored image at random, or domain.ErrNoImages when the
// store is empty.
func (s *Store) Random(ctx context.Context) (uuid.UUID, []byte, error) {
	keys, err := s.files.List(ctx, ".jpg")
	if err != nil {
		return uuid.Nil, nil, err
	}
	if len(keys) == 0 {
		return uuid.Nil, nil, domain.ErrNoImages
	}

	key := keys[rand.Intn(len(keys))]
	id, err := uuid.Parse(strings.TrimSuffix(key, ".jpg"))
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("imagestore: stray file %q: %w", key, err)
	}
	data, err := s.files.Read(ctx, key)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return id, data, nil
}

// Path resolves a stored image ID to its on-disk location, or
// domain.ErrNotFound when no such image exists.
func (s *Store) Path(id uuid.UUID) (string, error) {
	path, err := s.files.Path(id.String() + ".jpg")
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("image %s: %w", id, domain.ErrNotFound)
	}
	return path, nil
}

func (s *Store) describe(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumbnail(img, maxVisionEdge), &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("imagestore: encode thumbnail: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())
	return s.vision.DescribeImage(ctx, b64, prompts.DescribeImage)
}

// thumbnail scales img down so its longest edge is at most max pixels.
func thumbnail(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}
	scale := float64(max) / float64(w)
	if h > w {
		scale = float64(max) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// SidecarPath returns where the sidecar for an image path lives.
func SidecarPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".json"
}

// ReadSidecar loads the sidecar next to imagePath. A missing sidecar is not
// an error; the image simply has no stored description.
func ReadSidecar(imagePath string) (*Sidecar, error) {
	data, err := os.ReadFile(SidecarPath(imagePath))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("imagestore: read sidecar: %w", err)
	}
	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("imagestore: decode sidecar: %w", err)
	}
	return &sc, nil
}
