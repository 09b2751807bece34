package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// epochThreshold separates Unix-second values from other numeric representations
const epochThreshold = 10_000

// EpochToUTC converts a numeric timestamp. Values above the epoch threshold are Unix seconds;
// anything else is handed to the string parser. Returns nil when the value is absent or unusable.
func EpochToUTC(v *float64) *time.Time {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	if *v > epochThreshold {
		return fromUnix(*v)
	}
	return ParseTimestamp(strconv.FormatFloat(*v, 'f', -1, 64))
}

// ParseTimestamp converts a source date string to a UTC instant. Numeric strings follow the
// epoch rule; other strings are parsed as free-form dates, zone-less values read as UTC.
// It never fails: unparseable input yields nil.
func ParseTimestamp(s string) (ts *time.Time) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		if f > epochThreshold {
			return fromUnix(f)
		}
	}

	// dateparse panics on a handful of malformed inputs
	defer func() {
		if recover() != nil {
			ts = nil
		}
	}()

	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

func fromUnix(f float64) *time.Time {
	sec := math.Floor(f)
	nsec := math.Round((f - sec) * 1e9)
	t := time.Unix(int64(sec), int64(nsec)).UTC()
	return &t
}
