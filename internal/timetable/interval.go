package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Clock is a wall-clock time of day expressed as minutes after midnight.
// All routine times are same-day local values; there is no timezone or
// cross-midnight handling.
type Clock int

// ParseClock parses a 24-hour "HH:MM" string.
func ParseClock(raw string) (Clock, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", raw)
	}
	return Clock(hour*60 + minute), nil
}

// String renders the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether the clock falls within a single day.
func (c Clock) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// Interval is a half-open time range [Start, End) within one day.
type Interval struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// ParseInterval builds an interval from "HH:MM" strings and validates it.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: s, End: e}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate enforces start < end; an inverted or empty interval is a
// validation error, never a silent no-overlap.
func (iv Interval) Validate() error {
	if !iv.Start.Valid() || !iv.End.Valid() {
		return fmt.Errorf("interval %s-%s out of range", iv.Start, iv.End)
	}
	if iv.Start >= iv.End {
		return fmt.Errorf("interval start %s must be before end %s", iv.Start, iv.End)
	}
	return nil
}

// Minutes returns the interval length.
func (iv Interval) Minutes() int {
	return int(iv.End - iv.Start)
}

// Overlaps reports whether the two half-open intervals intersect.
// Intervals that share only an endpoint do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv.Start, iv.End, other.Start, other.End)
}

// Contains reports whether other lies fully inside iv.
func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

// Label renders the interval as "HH:MM-HH:MM" for grid headers.
func (iv Interval) Label() string {
	return iv.Start.String() + "-" + iv.End.String()
}

// Overlaps is the shared half-open overlap predicate: two ranges overlap
// when each starts before the other ends.
func Overlaps(aStart, aEnd, bStart, bEnd Clock) bool {
	return aStart < bEnd && bStart < aEnd
}

// WeekdayName returns the uppercase weekday name used throughout the API.
func WeekdayName(d time.Weekday) string {
	return strings.ToUpper(d.String())
}

var weekdayByName = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ParseWeekday resolves an uppercase weekday name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := weekdayByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return d, nil
}
