package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HSVRange is an inclusive OpenCV HSV range (H 0-180, S and V 0-255).
type HSVRange struct {
	Lower [3]float64 `yaml:"lower"`
	Upper [3]float64 `yaml:"upper"`
}

// ColorBand groups the ranges counted under one label. MinPercent and
// MaxPercent override the classifier-wide window when set.
type ColorBand struct {
	Label      string     `yaml:"label"`
	Ranges     []HSVRange `yaml:"ranges"`
	MinPercent *float64   `yaml:"min_percent,omitempty"`
	MaxPercent *float64   `yaml:"max_percent,omitempty"`
}

// Window returns the band's coverage window, falling back to the defaults.
func (b ColorBand) Window(defaultMin, defaultMax float64) (float64, float64) {
	lo, hi := defaultMin, defaultMax
	if b.MinPercent != nil {
		lo = *b.MinPercent
	}
	if b.MaxPercent != nil {
		hi = *b.MaxPercent
	}
	return lo, hi
}

type bandsFile struct {
	Bands []ColorBand `yaml:"bands"`
}

// DefaultColorBands returns the white and blue hull bands.
func DefaultColorBands() []ColorBand {
	return []ColorBand{
		{
			Label: "WHITE",
			Ranges: []HSVRange{
				{Lower: [3]float64{0, 0, 200}, Upper: [3]float64{180, 30, 255}},
			},
		},
		{
			Label: "BLUE",
			Ranges: []HSVRange{
				{Lower: [3]float64{100, 100, 100}, Upper: [3]float64{130, 255, 255}},
			},
		},
	}
}

// LoadColorBands reads band definitions from a YAML file.
func LoadColorBands(path string) ([]ColorBand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read color bands file: %w", err)
	}

	var file bandsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse color bands file: %w", err)
	}

	if len(file.Bands) == 0 {
		return nil, fmt.Errorf("color bands file %s defines no bands", path)
	}
	for _, band := range file.Bands {
		if band.Label == "" {
			return nil, fmt.Errorf("color band without label in %s", path)
		}
		if len(band.Ranges) == 0 {
			return nil, fmt.Errorf("color band %s has no ranges", band.Label)
		}
		if band.MinPercent != nil && band.MaxPercent != nil && *band.MinPercent > *band.MaxPercent {
			return nil, fmt.Errorf("color band %s has min_percent above max_percent", band.Label)
		}
	}

	return file.Bands, nil
}
