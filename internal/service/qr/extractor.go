// Package qr extracts identity tokens from QR codes embedded in frames.
package qr

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"oceanguard/internal/logger"
)

// Result is the outcome of an extraction. Token is empty when Found is false.
type Result struct {
	Found   bool
	Token   string
	Backend string
}

// Decoder is a QR decoding backend.
type Decoder interface {
	Name() string
	// Decode returns the decoded payload, or "" when the frame holds no code.
	Decode(data []byte) (string, error)
}

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]func() (Decoder, error))
)

// Register makes a backend constructor available by name.
func Register(name string, factory func() (Decoder, error)) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

// Available returns the registered backend names.
func Available() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extractor tries its decoders in order and reports the first token found.
type Extractor struct {
	decoders []Decoder
	logger   *logger.Logger
}

// NewExtractor creates an extractor over explicit decoders.
func NewExtractor(logger *logger.Logger, decoders ...Decoder) *Extractor {
	return &Extractor{decoders: decoders, logger: logger}
}

// NewExtractorFromNames builds the decoders named in cfg order. Unknown or
// failing backends are logged and skipped; "none" yields no decoders.
func NewExtractorFromNames(names []string, logger *logger.Logger) *Extractor {
	var decoders []Decoder

	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || name == "none" {
			continue
		}

		backendsMu.RLock()
		factory, ok := backends[name]
		backendsMu.RUnlock()
		if !ok {
			logger.Warning("QR backend %q is not available in this build (available: %v)", name, Available())
			continue
		}

		decoder, err := factory()
		if err != nil {
			logger.Warning("QR backend %q failed to initialize: %v", name, err)
			continue
		}
		decoders = append(decoders, decoder)
	}

	if len(decoders) == 0 {
		logger.Warning("No QR decoder available - identity extraction disabled")
	} else {
		logger.Info("QR decoders: %s", decoderNames(decoders))
	}

	return NewExtractor(logger, decoders...)
}

// Enabled reports whether at least one decoder is configured.
func (e *Extractor) Enabled() bool {
	return len(e.decoders) > 0
}

// Extract decodes a token from the frame. Errors never propagate.
func (e *Extractor) Extract(data []byte) Result {
	for _, decoder := range e.decoders {
		token, err := decoder.Decode(data)
		if err != nil {
			if e.logger != nil {
				e.logger.Warning("QR backend %s could not decode frame: %v", decoder.Name(), err)
			}
			continue
		}

		token = strings.TrimSpace(token)
		if token != "" {
			return Result{Found: true, Token: token, Backend: decoder.Name()}
		}
	}

	return Result{}
}

// Close releases decoders holding native resources.
func (e *Extractor) Close() error {
	for _, decoder := range e.decoders {
		if closer, ok := decoder.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				return fmt.Errorf("failed to close QR backend %s: %w", decoder.Name(), err)
			}
		}
	}
	return nil
}

func decoderNames(decoders []Decoder) string {
	names := make([]string, len(decoders))
	for i, d := range decoders {
		names[i] = d.Name()
	}
	return fmt.Sprint(names)
}
