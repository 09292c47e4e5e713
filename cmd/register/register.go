package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"oceanguard/internal/model"
	"oceanguard/internal/repository"
	"oceanguard/internal/service/qr"
)

type boatsFile struct {
	Boats []model.RegisteredBoat `yaml:"boats"`
}

type registerResult struct {
	Registered int
	QRCodes    int
	Errors     []error
}

func loadBoats(path string) ([]model.RegisteredBoat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boats file: %w", err)
	}

	var file boatsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse boats file: %w", err)
	}
	return file.Boats, nil
}

// register upserts each boat by boat_id. A boat without a QR code gets its
// boat_id as token.
func register(repo repository.BoatRepository, boats []model.RegisteredBoat, qrDir string, qrSize int) registerResult {
	var result registerResult

	for i := range boats {
		boat := boats[i]
		if strings.TrimSpace(boat.BoatID) == "" {
			result.Errors = append(result.Errors, fmt.Errorf("entry %d has no boat_id", i+1))
			continue
		}
		if boat.QRCode == "" {
			boat.QRCode = boat.BoatID
		}

		if _, err := repo.Upsert(&boat); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("boat %s: %w", boat.BoatID, err))
			continue
		}
		result.Registered++

		if qrDir == "" {
			continue
		}
		if err := writeQRCode(qrDir, boat, qrSize); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("boat %s: %w", boat.BoatID, err))
			continue
		}
		result.QRCodes++
	}

	return result
}

func writeQRCode(dir string, boat model.RegisteredBoat, size int) error {
	data, err := qr.EncodePNG(boat.QRCode, size)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create QR directory: %w", err)
	}

	name := filepath.Base(boat.BoatID) + ".png"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	return nil
}
