package handler

import (
	"net/http"
	"strconv"

	"oceanguard/internal/logger"
	"oceanguard/internal/model"
	"oceanguard/internal/repository"
)

// GetBoatsHandler lists the registry.
func GetBoatsHandler(logger *logger.Logger, boatRepo repository.BoatRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boats, err := boatRepo.GetAll()
		if err != nil {
			logger.Error("Error querying boats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if boats == nil {
			boats = []model.RegisteredBoat{}
		}

		writeJSON(w, logger, http.StatusOK, boats)
	}
}

// BlacklistBoatHandler sets or clears the blacklist flag of a boat.
func BlacklistBoatHandler(logger *logger.Logger, boatRepo repository.BoatRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		boatID := q.Get("boat_id")
		if boatID == "" {
			http.Error(w, "boat_id required", http.StatusBadRequest)
			return
		}

		value := true
		if v := q.Get("value"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "Invalid value", http.StatusBadRequest)
				return
			}
			value = parsed
		}

		boat, err := boatRepo.GetByBoatID(boatID)
		if err != nil {
			logger.Error("Error loading boat %s: %v", boatID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if boat == nil {
			http.Error(w, "Boat not found", http.StatusNotFound)
			return
		}

		if err := boatRepo.SetBlacklisted(boatID, value); err != nil {
			logger.Error("Error updating blacklist for %s: %v", boatID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Warning("Boat %s blacklisted=%t", boatID, value)
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{"boat_id": boatID, "is_blacklisted": value})
	}
}

// GetBoatScansHandler returns the scan history of a boat, newest first.
func GetBoatScansHandler(logger *logger.Logger, boatRepo repository.BoatRepository, scanRepo repository.ScanLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		boatID := q.Get("boat_id")
		if boatID == "" {
			http.Error(w, "boat_id required", http.StatusBadRequest)
			return
		}

		boat, err := boatRepo.GetByBoatID(boatID)
		if err != nil {
			logger.Error("Error loading boat %s: %v", boatID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if boat == nil {
			http.Error(w, "Boat not found", http.StatusNotFound)
			return
		}

		scans, err := scanRepo.GetByBoat(boat.ID, atoiDefault(q.Get("limit"), 50))
		if err != nil {
			logger.Error("Error querying scans for %s: %v", boatID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if scans == nil {
			scans = []model.ScanLogEntry{}
		}

		writeJSON(w, logger, http.StatusOK, map[string]interface{}{"boat": boat, "scans": scans})
	}
}
