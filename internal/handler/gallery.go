package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"oceanguard/internal/dto"
	"oceanguard/internal/logger"
	"oceanguard/internal/model"
	"oceanguard/internal/repository"
)

// ImageRemover deletes stored frame images.
type ImageRemover interface {
	Remove(path string) error
}

// GetCapturesHandler returns a filtered, paginated list of captures with the
// per-status counts of the review dashboard.
func GetCapturesHandler(logger *logger.Logger, captureRepo repository.CaptureRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		status := q.Get("status")
		if status != "" && !model.ValidStatus(status) {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}

		filter := &dto.CaptureFilters{
			Status:     status,
			Camera:     q.Get("camera"),
			QRData:     q.Get("qr"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		captures, err := captureRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying captures from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := captureRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting captures: %v", err)
			totalCount = len(captures)
		}

		counts, err := captureRepo.GetStatusCounts()
		if err != nil {
			logger.Error("Error counting capture statuses: %v", err)
			counts = map[string]int{}
		}

		infos := make([]dto.CaptureInfo, 0, len(captures))
		for _, c := range captures {
			infos = append(infos, dto.NewCaptureInfo(c))
		}

		data := dto.CapturesData{
			Captures:    infos,
			Counts:      counts,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		writeJSON(w, logger, http.StatusOK, data)
	}
}

// UpdateCaptureStatusHandler records a reviewer decision on a capture.
func UpdateCaptureStatusHandler(logger *logger.Logger, captureRepo repository.CaptureRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, ok := parseID(r.URL.Query().Get("id"))
		if !ok {
			http.Error(w, "Capture id required", http.StatusBadRequest)
			return
		}

		var req dto.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !model.ValidStatus(req.Status) {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
		if req.ReviewedBy == "" {
			req.ReviewedBy = "Coast Guard"
		}

		capture, err := captureRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading capture %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if capture == nil {
			http.Error(w, "Capture not found", http.StatusNotFound)
			return
		}

		if err := captureRepo.UpdateReview(id, req.Status, req.ReviewedBy, req.Notes, time.Now()); err != nil {
			logger.Error("Error updating capture %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Capture %d reviewed by %s: %s -> %s", id, req.ReviewedBy, capture.Status, req.Status)
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Status updated to " + req.Status,
		})
	}
}

// DeleteCaptureHandler removes a capture from the database and its image from disk.
func DeleteCaptureHandler(logger *logger.Logger, captureRepo repository.CaptureRepository, images ImageRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, ok := parseID(r.URL.Query().Get("id"))
		if !ok {
			http.Error(w, "Capture id required", http.StatusBadRequest)
			return
		}

		capture, err := captureRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading capture %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if capture == nil {
			http.Error(w, "Capture not found", http.StatusNotFound)
			return
		}

		if err := captureRepo.Delete(id); err != nil {
			logger.Error("Failed to delete capture %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := images.Remove(capture.ImagePath); err != nil {
			logger.Error("Failed to delete file %s: %v", capture.ImagePath, err)
		}

		logger.Info("Deleted capture: %d", id)
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{"status": "deleted", "id": id})
	}
}

// ViewCaptureHandler serves the stored image of a capture.
func ViewCaptureHandler(logger *logger.Logger, captureRepo repository.CaptureRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r.URL.Query().Get("id"))
		if !ok {
			http.Error(w, "Capture id required", http.StatusBadRequest)
			return
		}

		capture, err := captureRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading capture %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if capture == nil {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, capture.ImagePath)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseID parses a positive row id.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
