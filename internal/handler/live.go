package handler

import (
	"net/http"

	"oceanguard/internal/dto"
	"oceanguard/internal/logger"
)

// LiveFrames lists and locates frames held in the live cache.
type LiveFrames interface {
	Entries() ([]dto.LiveFrame, error)
	Path(name string) (string, bool)
}

// GetLiveFramesHandler lists the frames currently in the live cache.
func GetLiveFramesHandler(logger *logger.Logger, live LiveFrames) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frames, err := live.Entries()
		if err != nil {
			logger.Error("Error listing live frames: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, http.StatusOK, frames)
	}
}

// ViewLiveFrameHandler serves one cached frame specified via the "name" query parameter.
func ViewLiveFrameHandler(live LiveFrames) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, ok := live.Path(r.URL.Query().Get("name"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}
