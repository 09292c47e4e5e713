package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"oceanguard/internal/config"
	"oceanguard/internal/dto"
	"oceanguard/internal/logger"
)

const (
	// DefaultLiveTTL is how long a frame stays in the live cache.
	DefaultLiveTTL = 5 * time.Minute
	// LiveEvictInterval defines how often (seconds) the background sweep runs.
	LiveEvictInterval = 30
)

// LiveCache keeps the most recent frames on disk for monitoring. Entries are
// stamped with their arrival time and evicted once older than the TTL.
// Failures are logged and never reported to callers.
type LiveCache struct {
	dir    string
	ttl    time.Duration
	mu     sync.Mutex
	logger *logger.Logger
}

// NewLiveCache creates a live cache rooted at the configured directory.
func NewLiveCache(config *config.Config, logger *logger.Logger) *LiveCache {
	ttl := config.LiveTTL
	if ttl <= 0 {
		ttl = DefaultLiveTTL
	}

	return &LiveCache{
		dir:    config.LiveDirectory,
		ttl:    ttl,
		logger: logger,
	}
}

// Run evicts expired frames on a ticker, even when no new frames arrive,
// until ctx is cancelled.
func (c *LiveCache) Run(ctx context.Context) {
	c.run(ctx, time.Duration(LiveEvictInterval)*time.Second)
}

func (c *LiveCache) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.EvictExpired(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// Admit evicts expired entries, then stores data under name with arrival
// time at.
func (c *LiveCache) Admit(data []byte, name string, at time.Time) {
	c.EvictExpired(at)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		c.logger.Error("Error creating live directory: %v", err)
		return
	}

	fullpath := filepath.Join(c.dir, filepath.Base(name))
	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		c.logger.Error("Error saving live frame %s: %v", name, err)
		return
	}

	if err := os.Chtimes(fullpath, at, at); err != nil {
		c.logger.Warning("Error stamping live frame %s: %v", name, err)
	}
}

// EvictExpired removes entries older than the TTL relative to now and
// returns how many were removed.
func (c *LiveCache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Error("Error reading live directory: %v", err)
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed by someone else between ReadDir and Info.
			continue
		}

		if now.Sub(info.ModTime()) <= c.ttl {
			continue
		}

		err = os.Remove(filepath.Join(c.dir, entry.Name()))
		if err != nil && !os.IsNotExist(err) {
			c.logger.Error("Error evicting live frame %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		c.logger.Info("Evicted %d expired live frames", removed)
	}
	return removed
}

// Entries lists cached frames, newest first.
func (c *LiveCache) Entries() ([]dto.LiveFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []dto.LiveFrame{}, nil
		}
		return nil, fmt.Errorf("failed to read live directory: %w", err)
	}

	frames := make([]dto.LiveFrame, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		frames = append(frames, dto.LiveFrame{
			Name:       entry.Name(),
			ReceivedAt: info.ModTime(),
			Size:       info.Size(),
		})
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].ReceivedAt.After(frames[j].ReceivedAt)
	})

	return frames, nil
}

// Path returns the on-disk path of a cached frame, rejecting names that
// would escape the cache directory.
func (c *LiveCache) Path(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}

	fullpath := filepath.Join(c.dir, name)
	if _, err := os.Stat(fullpath); err != nil {
		return "", false
	}
	return fullpath, true
}
