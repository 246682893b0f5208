package progress

import (
	"fmt"
	"strings"
	"time"
)

// TimeUnit is a unit of time used when rendering rates and per-item timings.
//
// The zero value, UnitAuto, lets the logger pick a readable unit for each
// line based on the measured speed. Pinning a concrete unit (via
// WithTimeUnit or SetTimeUnit) keeps the output machine-parseable: the unit
// never changes between lines and counts are not thousands-separated.
type TimeUnit int

const (
	// UnitAuto picks a readable unit per line.
	UnitAuto TimeUnit = iota
	Nanoseconds
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

// timeUnits lists the concrete units from smallest to largest.
var timeUnits = []TimeUnit{
	Nanoseconds,
	Microseconds,
	Milliseconds,
	Seconds,
	Minutes,
	Hours,
	Days,
}

// Label returns the short suffix used in status lines (e.g. "ms").
func (u TimeUnit) Label() string {
	switch u {
	case Nanoseconds:
		return "ns"
	case Microseconds:
		return "μs"
	case Milliseconds:
		return "ms"
	case Seconds:
		return "s"
	case Minutes:
		return "m"
	case Hours:
		return "h"
	case Days:
		return "d"
	}
	return "?"
}

// Seconds returns the length of the unit in seconds.
func (u TimeUnit) Seconds() float64 {
	switch u {
	case Nanoseconds:
		return 1e-9
	case Microseconds:
		return 1e-6
	case Milliseconds:
		return 1e-3
	case Seconds:
		return 1
	case Minutes:
		return 60
	case Hours:
		return 3600
	case Days:
		return 86400
	}
	return 1
}

// NiceTimeUnit returns the largest unit not exceeding the given number of
// seconds per item, so per-item timings read as small numbers.
func NiceTimeUnit(secondsPerItem float64) TimeUnit {
	for i := len(timeUnits) - 1; i >= 0; i-- {
		if secondsPerItem >= timeUnits[i].Seconds() {
			return timeUnits[i]
		}
	}
	return Nanoseconds
}

// NiceSpeedUnit returns the smallest unit (seconds or larger) over which at
// least one item is processed, so rates read as numbers >= 1.
func NiceSpeedUnit(secondsPerItem float64) TimeUnit {
	for _, u := range timeUnits[3:] {
		if secondsPerItem <= u.Seconds() {
			return u
		}
	}
	return Days
}

// PrettyDuration formats a duration as split units, e.g. "2d 5h 11m 33s".
// Durations under one second are rendered in milliseconds.
func PrettyDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	secs := ms / 1000
	var b strings.Builder
	for _, u := range []TimeUnit{Days, Hours, Minutes} {
		unit := int64(u.Seconds())
		if secs >= unit {
			fmt.Fprintf(&b, "%d%s ", secs/unit, u.Label())
			secs %= unit
		}
	}
	fmt.Fprintf(&b, "%ds", secs)
	return b.String()
}
