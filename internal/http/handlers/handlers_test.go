package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"moodshift/internal/aesthetic"
	"moodshift/internal/imagestore"
	"moodshift/internal/storage"
	"moodshift/internal/transform"
)

type fakeVision struct{}

func (fakeVision) DescribeImage(ctx context.Context, imageB64, instruction string) (string, error) {
	return "sunset beach", nil
}

type fakeResolver struct{}

func (fakeResolver) SearchAesthetic(ctx context.Context, artist, song string) (string, error) {
	return "warm orange tones, vinyl sleeve", nil
}

type fakeChat struct{}

func (fakeChat) Chat(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error) {
	return "apply warm filter", nil
}

type fakeGenerator struct{}

func (fakeGenerator) GenerateImage(ctx context.Context, prompt, inputImageB64 string) ([]byte, error) {
	return []byte("PNGDATA"), nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	store, err := aesthetic.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	images := imagestore.New(files, fakeVision{}, zerolog.Nop())
	pipeline := transform.NewPipeline(
		store,
		fakeResolver{},
		transform.NewSynthesizer(fakeChat{}),
		fakeGenerator{},
		transform.Credentials{GenerationAPIKey: "bfl", VisionAPIKey: "oa"},
		zerolog.Nop(),
	)
	return NewApp(images, pipeline, zerolog.Nop())
}

func multipartUpload(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadThenTransform(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartUpload(t, encodePNG(t))
	req := httptest.NewRequest(http.MethodPut, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.UploadImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		ImageID string `json:"image_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/images?image_id="+uploaded.ImageID+"&song_title=Vienna&song_artists=Billy+Joel", nil)
	rec = httptest.NewRecorder()
	app.TransformImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("transform status %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if rec.Body.String() != "PNGDATA" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartUpload(t, []byte("not an image"))
	req := httptest.NewRequest(http.MethodPut, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.UploadImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransformUnknownImage(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/images?image_id=0e9bdd6a-3e1d-4bb2-a0e3-0d0f1c4c9a1e&song_title=s&song_artists=a", nil)
	rec := httptest.NewRecorder()
	app.TransformImage(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransformMissingParams(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/images?image_id=whatever", nil)
	rec := httptest.NewRecorder()
	app.TransformImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRandomImageEmptyStore(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	rec := httptest.NewRecorder()
	app.RandomImage(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetAestheticCachesResult(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/aesthetic?song_title=Vienna&artist=Billy+Joel", nil)
		rec := httptest.NewRecorder()
		app.GetAesthetic(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request #%d status %d", i+1, rec.Code)
		}
		var out map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if out["aesthetic"] != "warm orange tones, vinyl sleeve" {
			t.Fatalf("unexpected aesthetic: %q", out["aesthetic"])
		}
	}
}

func TestGetAestheticMissingParams(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/aesthetic?artist=only", nil)
	rec := httptest.NewRecorder()
	app.GetAesthetic(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
