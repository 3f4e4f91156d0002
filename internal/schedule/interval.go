package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// Interval is an occupied slot on a doctor's day, expressed as the
// half-open minute range [Start, End) in clinic-local time.
type Interval struct {
	Start int
	End   int
}

// ParseClock converts a 24-hour "HH:MM" string to minutes after midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", clock)
	}
	return hours*60 + minutes, nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// NewInterval builds the slot starting at the given "HH:MM" clock time and
// lasting durationMinutes. The duration must be positive and the slot may
// not cross midnight; both are caller errors, rejected before any state is
// touched.
func NewInterval(clock string, durationMinutes int) (Interval, error) {
	start, err := ParseClock(clock)
	if err != nil {
		return Interval{}, err
	}
	if durationMinutes <= 0 {
		return Interval{}, fmt.Errorf("duration must be positive, got %d", durationMinutes)
	}
	end := start + durationMinutes
	if end > minutesPerDay {
		return Interval{}, fmt.Errorf("appointment at %s for %d minutes runs past midnight", clock, durationMinutes)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect. A slot ending
// exactly when another begins does not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}
