package decision

import (
	"fmt"
	"strings"

	"oceanguard/internal/model"
	"oceanguard/internal/service/ai"
	"oceanguard/internal/service/color"
	"oceanguard/internal/service/validator"
)

// StatusRejected marks a discarded frame. It is never stored.
const StatusRejected = "rejected"

// Signals collects the stage results for one frame.
type Signals struct {
	// Identity is set when a QR token was extracted.
	Identity bool
	Token    string

	// Validator verdict, meaningful only with Identity.
	Valid      bool
	Suspicious bool
	Reason     string
	BoatID     string
	BoatName   string

	// Colors is empty when the colour stage was disabled or found nothing.
	Colors []color.Match

	// ML is nil when the detector did not run.
	ML *ai.Verdict
}

// Decision is the outcome of one frame and its explanatory note.
type Decision struct {
	Status string
	Note   string
}

// Rejected reports whether the frame is discarded.
func (d Decision) Rejected() bool {
	return d.Status == StatusRejected
}

// Decide maps stage signals to an outcome. The first matching rule wins and
// the result depends on nothing but s.
func Decide(s Signals) Decision {
	switch {
	case s.Identity && s.Valid && !s.Suspicious:
		return Decision{
			Status: model.StatusPending,
			Note:   fmt.Sprintf("Registered boat %s (%s) verified by QR", s.BoatID, s.BoatName),
		}

	case s.Identity:
		return Decision{
			Status: model.StatusWarning,
			Note:   identityWarning(s),
		}

	case len(s.Colors) > 0:
		return Decision{
			Status: model.StatusPending,
			Note:   "No QR code; hull colour " + describeColors(s.Colors),
		}

	case s.ML != nil && s.ML.IsTarget:
		return Decision{
			Status: model.StatusWarning,
			Note:   mlWarning(*s.ML),
		}

	default:
		return Decision{
			Status: StatusRejected,
			Note:   "No QR code, hull colour or target object detected",
		}
	}
}

func identityWarning(s Signals) string {
	switch s.Reason {
	case validator.ReasonUnregistered:
		return fmt.Sprintf("QR code %q is not registered", s.Token)
	case validator.ReasonBlacklisted:
		return fmt.Sprintf("Blacklisted boat %s (%s)", s.BoatID, s.BoatName)
	}

	if s.Reason == "" {
		return fmt.Sprintf("QR code %q failed validation", s.Token)
	}
	return fmt.Sprintf("Boat %s (%s) suspicious: %s", s.BoatID, s.BoatName, s.Reason)
}

func describeColors(matches []color.Match) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("%s %.1f%%", m.Label, m.Percentage)
	}
	return strings.Join(parts, ", ")
}

func mlWarning(v ai.Verdict) string {
	switch v.Label {
	case ai.LabelUnknown:
		return "No QR code; object detector unavailable, flagged for review"
	case ai.LabelError:
		return "No QR code; object detector failed, flagged for review"
	}
	return fmt.Sprintf("Unidentified vessel: %s detected (%.2f)", v.Label, v.Confidence)
}
