package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"oceanguard/internal/config"
	"oceanguard/internal/logger"
)

// FrameStore persists images of frames that produced a capture record.
type FrameStore struct {
	imagesDir string
	logger    *logger.Logger
}

// NewFrameStore creates a frame store rooted at the configured image directory.
func NewFrameStore(config *config.Config, logger *logger.Logger) *FrameStore {
	return &FrameStore{
		imagesDir: config.ImageDirectory,
		logger:    logger,
	}
}

// FrameName builds the stored file name of a frame.
func FrameName(camera, frameID string, at time.Time) string {
	camera = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '-'
		}
		return r
	}, camera)
	if camera == "" {
		camera = "upload"
	}
	return fmt.Sprintf("%s_%s_%s.jpg", at.UTC().Format("2006-01-02_15-04-05.000"), camera, frameID)
}

// PersistImage writes data under name and returns the stored path.
func (s *FrameStore) PersistImage(data []byte, name string) (string, error) {
	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	fullpath := filepath.Join(s.imagesDir, filepath.Base(name))
	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image %s: %w", name, err)
	}

	return fullpath, nil
}

// Remove deletes a stored image. A missing file is not an error.
func (s *FrameStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}
