package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"moodshift/internal/http/handlers"
	"moodshift/internal/middleware"
)

func NewRouter(app *handlers.App, log zerolog.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(log))

	r.Get("/healthz", app.Health)

	r.Route("/images", func(r chi.Router) {
		r.Put("/", app.UploadImage)
		r.Get("/", app.RandomImage)
		r.Post("/", app.TransformImage)
	})

	r.Get("/aesthetic", app.GetAesthetic)

	return r
}
