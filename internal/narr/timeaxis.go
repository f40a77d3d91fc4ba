package narr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TZ=UTC date --date="1800-01-01 00:00:00" +%s
const unixSecs1800 = -5364662400

// TimeLayout is the layout of timestamps in requests and log messages.
const TimeLayout = "2006-01-02 15:04:05"

var requestLayouts = []string{
	TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15",
	"2006-01-02 15:04",
}

// ParseTime parses a UTC timestamp such as "2022-01-01 18:00:00".
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range requestLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q; use the %q layout", s, TimeLayout)
}

// timeAxis converts CF-style time offsets into absolute times.
type timeAxis struct {
	unit  time.Duration
	epoch int64 // unix seconds
}

var defaultTimeAxis = timeAxis{unit: time.Hour, epoch: unixSecs1800}

// parseTimeUnits parses a units attribute such as
// "hours since 1800-01-01 00:00:0.0".
func parseTimeUnits(units string) (timeAxis, error) {
	if units == "" {
		return defaultTimeAxis, nil
	}
	unit, ref, ok := strings.Cut(units, " since ")
	if !ok {
		return timeAxis{}, fmt.Errorf("unsupported time units %q", units)
	}
	var ta timeAxis
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "secs", "s":
		ta.unit = time.Second
	case "minutes", "minute", "mins":
		ta.unit = time.Minute
	case "hours", "hour", "hrs", "h":
		ta.unit = time.Hour
	case "days", "day":
		ta.unit = 24 * time.Hour
	default:
		return timeAxis{}, fmt.Errorf("unsupported time unit %q in %q", unit, units)
	}

	fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(ref), "Z"))
	if len(fields) == 0 {
		return timeAxis{}, fmt.Errorf("missing reference date in %q", units)
	}
	date, clock, _ := strings.Cut(fields[0], "T")
	day, err := time.ParseInLocation("2006-1-2", date, time.UTC)
	if err != nil {
		return timeAxis{}, fmt.Errorf("bad reference date in %q: %w", units, err)
	}
	if clock == "" && len(fields) > 1 {
		clock = fields[1]
	}
	secs, err := clockSeconds(clock)
	if err != nil {
		return timeAxis{}, fmt.Errorf("bad reference time in %q: %w", units, err)
	}
	ta.epoch = day.Unix() + secs
	return ta, nil
}

// clockSeconds parses "hh:mm:ss[.f]" and returns the seconds since midnight.
// Fractional seconds are truncated.
func clockSeconds(clock string) (int64, error) {
	if clock == "" {
		return 0, nil
	}
	parts := strings.Split(clock, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("too many clock components in %q", clock)
	}
	mult := []float64{3600, 60, 1}
	var secs float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		secs += v * mult[i]
	}
	return int64(secs), nil
}

// at returns the absolute time of the given offset.
func (ta timeAxis) at(offset float64) time.Time {
	secs := offset * ta.unit.Seconds()
	whole := math.Floor(secs)
	nanos := int64(math.Round((secs - whole) * 1e9))
	return time.Unix(ta.epoch+int64(whole), nanos).UTC()
}
