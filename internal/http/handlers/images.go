package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"moodshift/internal/domain"
)

// maxUploadSize caps uploads at 10 MB; oversized bodies are rejected before
// anything is decoded.
const maxUploadSize = 10 << 20

// UploadImage accepts a multipart upload under the "file" field, stores and
// describes it, and returns the assigned image ID.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusRequestEntityTooLarge, "file too large, maximum size is 10 MB")
			return
		}
		a.error(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusRequestEntityTooLarge, "file too large, maximum size is 10 MB")
			return
		}
		a.error(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	id, err := a.Images.Put(r.Context(), data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImage) {
			a.error(w, http.StatusBadRequest, err.Error())
			return
		}
		a.Log.Error().Err(err).Msg("image upload failed")
		a.error(w, http.StatusBadGateway, err.Error())
		return
	}

	a.json(w, http.StatusOK, map[string]string{"image_id": id.String()})
}

// RandomImage returns one stored image at random with its ID in the
// X-Image-ID header.
func (a *App) RandomImage(w http.ResponseWriter, r *http.Request) {
	id, data, err := a.Images.Random(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoImages) {
			a.error(w, http.StatusNotFound, "no images available")
			return
		}
		a.Log.Error().Err(err).Msg("random image lookup failed")
		a.error(w, http.StatusInternalServerError, "failed to load image")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("X-Image-ID", id.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// TransformImage runs the pipeline against a previously uploaded image and
// returns the generated PNG bytes.
func (a *App) TransformImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	songTitle := q.Get("song_title")
	songArtists := q.Get("song_artists")
	if songTitle == "" || songArtists == "" {
		a.error(w, http.StatusBadRequest, "song_title and song_artists are required")
		return
	}

	imageID, err := uuid.Parse(q.Get("image_id"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid image_id")
		return
	}

	imagePath, err := a.Images.Path(imageID)
	if err != nil {
		a.error(w, http.StatusNotFound, err.Error())
		return
	}

	pngBytes, err := a.Pipeline.Transform(r.Context(), imagePath, songTitle, songArtists)
	if err != nil {
		a.Log.Error().Err(err).Str("image_id", imageID.String()).Msg("transformation failed")
		a.error(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pngBytes)
}
