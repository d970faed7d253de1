package handlers

import "net/http"

// GetAesthetic performs the cache-aside aesthetic lookup on its own, without
// touching any image.
func (a *App) GetAesthetic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	songTitle := q.Get("song_title")
	artist := q.Get("artist")
	if songTitle == "" || artist == "" {
		a.error(w, http.StatusBadRequest, "song_title and artist are required")
		return
	}

	description, err := a.Pipeline.ResolveAesthetic(r.Context(), artist, songTitle)
	if err != nil {
		a.Log.Error().Err(err).Str("song", songTitle).Str("artist", artist).Msg("aesthetic lookup failed")
		a.error(w, http.StatusBadGateway, err.Error())
		return
	}

	a.json(w, http.StatusOK, map[string]string{"aesthetic": description})
}
