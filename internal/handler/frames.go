package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"oceanguard/internal/dto"
	"oceanguard/internal/logger"
	"oceanguard/internal/model"
	"oceanguard/internal/service"
	"oceanguard/internal/service/decision"
)

// MaxFrameSize limits uploaded frames to 10 MB.
const MaxFrameSize = 10 << 20

// UploadFrameHandler handles POST /api/frames. The body is the raw JPEG;
// camera, lat and lon are optional query parameters.
func UploadFrameHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxFrameSize))
		if err != nil {
			http.Error(w, "Frame too large or unreadable", http.StatusRequestEntityTooLarge)
			return
		}
		if len(data) == 0 {
			http.Error(w, "Empty frame", http.StatusBadRequest)
			return
		}

		q := r.URL.Query()
		position, err := parseCoordinate(q.Get("lat"), q.Get("lon"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		camera := q.Get("camera")
		if camera == "" {
			camera = "upload"
		}

		frame := manager.NewFrame(data, camera, position)
		capture, err := manager.Authenticate(frame)
		if err != nil {
			http.Error(w, "Failed to record frame", http.StatusInternalServerError)
			return
		}

		resp := dto.FrameResponse{FrameID: frame.ID, Status: decision.StatusRejected}
		if capture != nil {
			resp.Status = capture.Status
			resp.CaptureID = capture.ID
			resp.Note = capture.Notes
		}

		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// parseCoordinate returns nil when both values are absent.
func parseCoordinate(lat, lon string) (*model.Coordinate, error) {
	if lat == "" && lon == "" {
		return nil, nil
	}
	if lat == "" || lon == "" {
		return nil, errors.New("lat and lon must be given together")
	}

	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil || !finite(latitude) || latitude < -90 || latitude > 90 {
		return nil, errors.New("invalid latitude")
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil || !finite(longitude) || longitude < -180 || longitude > 180 {
		return nil, errors.New("invalid longitude")
	}

	return &model.Coordinate{Latitude: latitude, Longitude: longitude}, nil
}

// finite rejects the NaN and Inf spellings ParseFloat accepts.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
