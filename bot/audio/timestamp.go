package audio

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTimestamp indicates the user supplied a time string that cannot
// be interpreted as a track position.
var ErrInvalidTimestamp = errors.New("audio: invalid timestamp")

// ParseTimestamp converts a human time string to seconds. Colon-separated
// fields are read right-to-left as seconds, minutes, hours, so "23", "1:23"
// and "1:01:23" are all valid. The seconds field may be fractional
// ("4:23.5"). No upper bound is enforced; values past the end of the track
// are passed through to the trim step as-is.
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has too many fields", ErrInvalidTimestamp, ts)
	}

	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
		}
		if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
		}
		total = total*60 + v
	}
	return total, nil
}

// FormatSeconds renders a seconds offset as m:ss, keeping a single fractional
// digit when the value is not whole (e.g. 201.5 -> "3:21.5").
func FormatSeconds(seconds float64) string {
	m := int(seconds) / 60
	s := seconds - float64(m)*60
	if s == math.Trunc(s) {
		return fmt.Sprintf("%d:%02d", m, int(s))
	}
	return fmt.Sprintf("%d:%04.1f", m, s)
}
