package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"moodshift/internal/imagestore"
	"moodshift/internal/transform"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Images   *imagestore.Store
	Pipeline *transform.Pipeline
	Log      zerolog.Logger
}

func NewApp(images *imagestore.Store, pipeline *transform.Pipeline, log zerolog.Logger) *App {
	return &App{Images: images, Pipeline: pipeline, Log: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
