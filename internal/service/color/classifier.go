// Package color implements the hull colour heuristic used when no QR identity
// is found. It reports which configured HSV bands cover a plausible share of
// the frame.
package color

import (
	"sort"

	"oceanguard/internal/config"
	"oceanguard/internal/logger"
)

// Match is one band whose coverage fell inside the configured window.
type Match struct {
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

// PixelCounter counts, per band, the pixels matching any of its ranges.
type PixelCounter interface {
	CountBands(data []byte, bands []config.ColorBand) (counts []int, total int, err error)
}

// Classifier turns band pixel counts into ordered matches.
type Classifier struct {
	counter    PixelCounter
	bands      []config.ColorBand
	minPercent float64
	maxPercent float64
	logger     *logger.Logger
}

// NewClassifier creates a classifier over an explicit pixel counter.
func NewClassifier(counter PixelCounter, bands []config.ColorBand, minPercent, maxPercent float64, logger *logger.Logger) *Classifier {
	return &Classifier{
		counter:    counter,
		bands:      bands,
		minPercent: minPercent,
		maxPercent: maxPercent,
		logger:     logger,
	}
}

// NewClassifierFromConfig wires the OpenCV pixel counter. A build without
// OpenCV yields a classifier that never detects.
func NewClassifierFromConfig(cfg *config.Config, logger *logger.Logger) *Classifier {
	counter, err := newDefaultCounter()
	if err != nil {
		logger.Warning("Color classifier unavailable: %v", err)
		counter = nil
	}
	return NewClassifier(counter, cfg.ColorBands, cfg.ColorMinPercent, cfg.ColorMaxPercent, logger)
}

// Classify returns the matching bands ordered by descending coverage.
// Unreadable frames yield an empty result.
func (c *Classifier) Classify(data []byte) []Match {
	if c.counter == nil || len(c.bands) == 0 {
		return nil
	}

	counts, total, err := c.counter.CountBands(data, c.bands)
	if err != nil {
		if c.logger != nil {
			c.logger.Warning("Color classification skipped: %v", err)
		}
		return nil
	}

	return SelectMatches(c.bands, counts, total, c.minPercent, c.maxPercent)
}

// SelectMatches keeps bands whose coverage lies within their window
// ([minPercent, maxPercent] unless the band overrides it) and orders them by descending percentage, then label.
func SelectMatches(bands []config.ColorBand, counts []int, total int, minPercent, maxPercent float64) []Match {
	if total <= 0 {
		return nil
	}

	var matches []Match
	for i, band := range bands {
		if i >= len(counts) {
			break
		}

		percentage := float64(counts[i]) / float64(total) * 100
		lo, hi := band.Window(minPercent, maxPercent)
		if percentage < lo || percentage > hi {
			continue
		}
		matches = append(matches, Match{Label: band.Label, Percentage: percentage})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Percentage != matches[j].Percentage {
			return matches[i].Percentage > matches[j].Percentage
		}
		return matches[i].Label < matches[j].Label
	})

	return matches
}
