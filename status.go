package progress

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// statusLine renders the logger's state at the given instant. Rendering has
// no side effects; memory values come from the last Refresh.
//
// Running form:
//
//	1,234,567 nodes, 1m 30s, 13717.41 nodes/s, 72.90 μs/node; 12.35% done, 10m 41s to end
//
// Stopped form:
//
//	Elapsed: 1m 30s [1,234,567 nodes, 13717.41 nodes/s, 72.90 μs/node]
//
// Rate, per-item timing and ETA are omitted whenever they would divide by a
// zero count or zero elapsed time.
func (l *Logger) statusLine(now time.Time) string {
	if l.startTime.IsZero() {
		return "not started"
	}

	var b strings.Builder
	if !l.stopTime.IsZero() {
		elapsed := l.stopTime.Sub(l.startTime)
		fmt.Fprintf(&b, "Elapsed: %s", PrettyDuration(elapsed))
		if l.count != 0 && elapsed > 0 {
			fmt.Fprintf(&b, " [%s %s, ", l.formatCount(l.count), l.pluralized(l.count))
			l.writeTimingSpeed(&b, elapsed.Seconds()/float64(l.count))
			b.WriteString("]")
		}
	} else {
		elapsed := now.Sub(l.startTime)
		fmt.Fprintf(&b, "%s %s, %s", l.formatCount(l.count), l.pluralized(l.count), PrettyDuration(elapsed))
		if l.count != 0 && elapsed > 0 {
			b.WriteString(", ")
			l.writeTimingSpeed(&b, elapsed.Seconds()/float64(l.count))

			if l.expectedUpdates > 0 {
				var remaining uint64
				if l.expectedUpdates > l.count {
					remaining = l.expectedUpdates - l.count
				}
				toEnd := time.Duration(float64(remaining) * elapsed.Seconds() / float64(l.count) * float64(time.Second))
				fmt.Fprintf(&b, "; %.2f%% done, %s to end",
					100*float64(l.count)/float64(l.expectedUpdates), PrettyDuration(toEnd))
			}

			if l.localSpeed {
				sinceLast := now.Sub(l.lastLogTime)
				delta := l.count - l.lastCount
				if delta > 0 && sinceLast > 0 {
					b.WriteString(" [")
					l.writeTimingSpeed(&b, sinceLast.Seconds()/float64(delta))
					b.WriteString("]")
				}
			}
		}
	}

	if l.mem != nil {
		b.WriteString("; ")
		b.WriteString(l.mem.status())
	}
	return b.String()
}

// writeTimingSpeed writes the "<rate> <plural>/<unit>, <timing> <unit>/<item>"
// pair, picking readable units unless a fixed time unit is configured.
func (l *Logger) writeTimingSpeed(b *strings.Builder, secondsPerItem float64) {
	itemsPerSecond := 1 / secondsPerItem

	timingUnit := l.timeUnit
	speedUnit := l.timeUnit
	if l.timeUnit == UnitAuto {
		timingUnit = NiceTimeUnit(secondsPerItem)
		speedUnit = NiceSpeedUnit(secondsPerItem)
	}

	fmt.Fprintf(b, "%.2f %s/%s, %.2f %s/%s",
		itemsPerSecond*speedUnit.Seconds(), l.plural, speedUnit.Label(),
		secondsPerItem/timingUnit.Seconds(), timingUnit.Label(), l.itemName)
}

// formatCount thousands-separates counts for human consumption, unless a
// fixed time unit requests machine-parseable output.
func (l *Logger) formatCount(n uint64) string {
	if l.timeUnit == UnitAuto {
		return humanize.Comma(int64(n))
	}
	return strconv.FormatUint(n, 10)
}

// pluralized returns the item name matching the grammatical number of n.
func (l *Logger) pluralized(n uint64) string {
	if n == 1 {
		return l.itemName
	}
	return l.plural
}
