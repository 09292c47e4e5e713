package validator

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"oceanguard/internal/config"
	"oceanguard/internal/geo"
	"oceanguard/internal/logger"
	"oceanguard/internal/model"
	"oceanguard/internal/repository"
)

// Reasons reported for tokens that cannot be accepted at all.
const (
	ReasonUnregistered = "unregistered"
	ReasonBlacklisted  = "blacklisted"
)

const (
	// DefaultMaxSpeedKmh is the fastest plausible vessel speed between two scans.
	DefaultMaxSpeedKmh = 100.0
	// DefaultReplayWindow is the minimum expected gap between two scans of the same code.
	DefaultReplayWindow = 5 * time.Minute
)

// Verdict is the validator's answer for one identity token.
type Verdict struct {
	Valid      bool
	Suspicious bool
	Reason     string
	Boat       *model.RegisteredBoat
}

// Validator resolves identity tokens against the registry and checks them
// against the boat's previous scan. Checks for the same boat are serialized
// from Begin until the scan is committed or aborted.
type Validator struct {
	boats        repository.BoatRepository
	scans        repository.ScanLogRepository
	maxSpeedKmh  float64
	replayWindow time.Duration
	logger       *logger.Logger

	// Entries live only while a scan of the boat is in flight.
	locks      map[int64]*boatLock
	locksMutex sync.Mutex
}

type boatLock struct {
	mu   sync.Mutex
	refs int
}

// NewValidator creates a validator with explicit thresholds.
func NewValidator(boats repository.BoatRepository, scans repository.ScanLogRepository, maxSpeedKmh float64, replayWindow time.Duration, logger *logger.Logger) *Validator {
	if maxSpeedKmh <= 0 {
		maxSpeedKmh = DefaultMaxSpeedKmh
	}
	if replayWindow <= 0 {
		replayWindow = DefaultReplayWindow
	}

	return &Validator{
		boats:        boats,
		scans:        scans,
		maxSpeedKmh:  maxSpeedKmh,
		replayWindow: replayWindow,
		logger:       logger,
		locks:        make(map[int64]*boatLock),
	}
}

// NewValidatorFromConfig creates a validator using the configured thresholds.
func NewValidatorFromConfig(cfg *config.Config, boats repository.BoatRepository, scans repository.ScanLogRepository, logger *logger.Logger) *Validator {
	return NewValidator(boats, scans, cfg.MaxSpeedKmh, cfg.ReplayWindow, logger)
}

// Begin validates token at position and time now. For registered boats,
// blacklisted or not, the returned scan holds the boat's lock until Commit
// or Abort. An unusable position is treated as absent.
func (v *Validator) Begin(token string, position *model.Coordinate, now time.Time) (*Scan, error) {
	boat, err := v.boats.GetByQRCode(token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	if boat == nil {
		return &Scan{Verdict: Verdict{Valid: false, Suspicious: true, Reason: ReasonUnregistered}}, nil
	}

	if position != nil && !geo.Valid(position) {
		v.logger.Warning("Ignoring invalid position %v,%v for boat %s", position.Latitude, position.Longitude, boat.BoatID)
		position = nil
	}

	unlock := v.lockBoat(boat.ID)

	prior, err := v.scans.GetMostRecent(boat.ID)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("failed to get previous scan: %w", err)
	}

	// A scan without coordinate must not hide where the boat was last seen.
	located := prior
	if position != nil && prior != nil && prior.Position == nil {
		if located, err = v.scans.GetMostRecentWithPosition(boat.ID); err != nil {
			unlock()
			return nil, fmt.Errorf("failed to get previous located scan: %w", err)
		}
	}

	entry := &model.ScanLogEntry{
		BoatID:    boat.ID,
		ScannedAt: now,
		Position:  position,
	}
	reasons := v.inspect(prior, located, entry)

	verdict := Verdict{Valid: true, Boat: boat}
	if boat.IsBlacklisted {
		verdict.Valid = false
		reasons = append([]string{ReasonBlacklisted}, reasons...)
	}
	verdict.Suspicious = len(reasons) > 0
	verdict.Reason = strings.Join(reasons, "; ")

	entry.IsSuspicious = verdict.Suspicious
	entry.SuspicionReason = verdict.Reason

	// Blacklisting outranks travel anomalies in the verdict.
	if boat.IsBlacklisted {
		verdict.Reason = ReasonBlacklisted
	}

	if verdict.Suspicious {
		v.logger.Warning("Suspicious scan of boat %s: %s", boat.BoatID, entry.SuspicionReason)
	}

	return &Scan{
		Verdict:   verdict,
		validator: v,
		entry:     entry,
		unlock:    unlock,
	}, nil
}

// inspect fills the travel metrics of entry and returns the anomalies found.
// Replay is timed from prior, the latest scan; distance and speed are
// measured from located, the latest scan with a coordinate.
func (v *Validator) inspect(prior, located, entry *model.ScanLogEntry) []string {
	if prior == nil || entry.Position == nil {
		return nil
	}

	minutes := entry.ScannedAt.Sub(prior.ScannedAt).Minutes()
	entry.MinutesSincePrevious = &minutes

	var reasons []string

	if located != nil {
		if distance, ok := geo.DistanceKm(located.Position, entry.Position); ok {
			entry.DistanceFromPreviousKm = &distance
			elapsed := entry.ScannedAt.Sub(located.ScannedAt).Minutes()
			if elapsed > 0 {
				speed := distance / elapsed * 60
				entry.SpeedKmh = &speed
				if speed > v.maxSpeedKmh {
					reasons = append(reasons, fmt.Sprintf("impossible speed %.1f km/h (%.2f km in %.1f min)", speed, distance, elapsed))
				}
			}
		}
	}

	if minutes < v.replayWindow.Minutes() {
		reasons = append(reasons, fmt.Sprintf("rapid replay %.1f min after previous scan", minutes))
	}

	return reasons
}

// lockBoat serializes scans of one boat and returns the matching unlock.
// The lock entry is dropped once no scan holds or waits for it.
func (v *Validator) lockBoat(id int64) func() {
	v.locksMutex.Lock()
	lock, exists := v.locks[id]
	if !exists {
		lock = &boatLock{}
		v.locks[id] = lock
	}
	lock.refs++
	v.locksMutex.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		v.locksMutex.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(v.locks, id)
		}
		v.locksMutex.Unlock()
	}
}

// Scan is an in-flight validation. Exactly one of Commit or Abort must be
// called; both are no-ops for unregistered tokens.
type Scan struct {
	Verdict

	validator *Validator
	entry     *model.ScanLogEntry
	unlock    func()
	done      bool
}

// Entry returns the scan log entry Commit would append, or nil for an
// unregistered token.
func (s *Scan) Entry() *model.ScanLogEntry {
	return s.entry
}

// Commit appends the scan log entry linked to captureID and bumps the boat
// counters, then releases the boat.
func (s *Scan) Commit(captureID *int64) error {
	if s.done || s.entry == nil {
		return nil
	}
	defer s.release()

	s.entry.CaptureID = captureID
	id, err := s.validator.scans.Insert(s.entry)
	if err != nil {
		return fmt.Errorf("failed to append scan log: %w", err)
	}
	s.entry.ID = id

	if err := s.validator.boats.RecordScan(s.entry.BoatID, s.entry.ScannedAt, s.entry.Position, s.entry.IsSuspicious); err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	return nil
}

// Abort releases the boat without recording anything.
func (s *Scan) Abort() {
	if s.done || s.entry == nil {
		return
	}
	s.release()
}

// Done releases the boat after the caller recorded Entry itself, together
// with the counter update, through a repository.OutcomeRepository.
func (s *Scan) Done() {
	s.Abort()
}

func (s *Scan) release() {
	s.done = true
	if s.unlock != nil {
		s.unlock()
	}
}
