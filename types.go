package progress

import (
	"time"
)

const (
	// DefaultLogInterval is the minimum time between two status lines unless
	// configured otherwise.
	DefaultLogInterval = 10 * time.Second

	// DefaultLightUpdateMask controls how often LightUpdate on a Logger reads
	// the clock: once every DefaultLightUpdateMask+1 calls.
	DefaultLightUpdateMask = 1<<20 - 1

	// DefaultThreshold is the number of buffered updates after which a
	// concurrent handle merges into the shared logger.
	DefaultThreshold = 1 << 15

	// DefaultConcurrentLightUpdateMask controls how often LightUpdate on a
	// concurrent handle merges into the shared logger: once every
	// DefaultConcurrentLightUpdateMask+1 calls. It is much smaller than
	// DefaultLightUpdateMask because merges are further throttled by the
	// shared logger's own interval check.
	DefaultConcurrentLightUpdateMask = 1<<10 - 1
)

// ProgressLog is the reporting contract shared by Logger, ConcurrentLogger
// and Nop. Code that processes items can accept a ProgressLog and be handed
// a real logger, a per-worker concurrent handle, or Discard() when progress
// output is disabled.
//
// Configuration (item name, interval, expected total, ...) lives on the
// concrete types; it is set up before the value is passed around.
type ProgressLog interface {
	// Start begins a new measurement epoch: the count is reset, the stop
	// time is cleared, and msg is logged immediately (nothing is logged for
	// an empty msg). Start may be called again after Stop or Done to reuse
	// the logger.
	Start(msg string)

	// Update adds one processed item and logs a status line if the log
	// interval has elapsed since the last one.
	Update()

	// UpdateWithCount adds n processed items and logs a status line if the
	// log interval has elapsed since the last one.
	UpdateWithCount(n uint64)

	// LightUpdate adds one processed item but checks the time only once
	// every mask+1 calls. Use it when per-item work is so cheap that reading
	// the clock dominates.
	LightUpdate()

	// UpdateAndDisplay adds one processed item and logs a status line
	// unconditionally.
	UpdateAndDisplay()

	// Stop ends the current epoch, fixing the elapsed time, and logs msg if
	// it is not empty. The expected number of updates is cleared so a reused
	// logger does not display a stale ETA.
	Stop(msg string)

	// Done stops the logger, logs "Completed." and a final summary line with
	// the total count, elapsed time and average rate.
	Done()

	// DoneWithCount sets the count to n and then behaves like Done. Useful
	// when per-item updates were skipped and only a final total is known.
	DoneWithCount(n uint64)

	// Refresh re-samples memory usage if memory display is enabled. Call it
	// before rendering the logger manually; it never logs and never changes
	// counters.
	Refresh()

	// Elapsed returns the time since Start (or between Start and Stop once
	// stopped). The second return is false if the logger was never started.
	Elapsed() (time.Duration, bool)

	// Count returns the number of items recorded in the current epoch.
	Count() uint64

	// Log emits an arbitrary message through the logger's sink, at the same
	// target and severity used for status lines.
	Log(msg string, keysAndValues ...any)
}

// Option configures a Logger during construction.
type Option func(l *Logger)

// WithItemName sets the display name of one unit of work (default "item").
// The plural form used in status lines is derived from it.
func WithItemName(name string) Option {
	return func(l *Logger) { l.SetItemName(name) }
}

// WithLogInterval sets the minimum time between status lines
// (default DefaultLogInterval). An interval of 0 logs on every update.
func WithLogInterval(d time.Duration) Option {
	return func(l *Logger) { l.SetLogInterval(d) }
}

// WithExpectedUpdates sets the anticipated total number of items. When
// non-zero, status lines include the percentage done and an estimated time
// to completion.
func WithExpectedUpdates(n uint64) Option {
	return func(l *Logger) { l.SetExpectedUpdates(n) }
}

// WithDisplayMemory enables a memory-usage suffix on every status line:
// resident and virtual size of this process, plus available, free and total
// system memory.
func WithDisplayMemory(on bool) Option {
	return func(l *Logger) { l.SetDisplayMemory(on) }
}

// WithTimeUnit pins the unit used for rates and per-item timings instead of
// letting the logger pick a readable one per line. See TimeUnit.
func WithTimeUnit(u TimeUnit) Option {
	return func(l *Logger) { l.SetTimeUnit(u) }
}

// WithLocalSpeed additionally displays the rate achieved since the previous
// status line, in brackets after the average rate.
func WithLocalSpeed(on bool) Option {
	return func(l *Logger) { l.SetLocalSpeed(on) }
}

// WithLogTarget names the sink used for output, typically the package or
// subsystem reporting progress. It maps to logr's WithName.
func WithLogTarget(target string) Option {
	return func(l *Logger) { l.SetLogTarget(target) }
}

// WithLightUpdateMask sets the sampling mask used by LightUpdate. The mask
// must be a power of two minus one; the clock is read once every mask+1
// calls.
func WithLightUpdateMask(mask uint64) Option {
	return func(l *Logger) { l.SetLightUpdateMask(mask) }
}

// WithClock replaces the time source, mainly for tests. The clock must be
// monotonic. It cannot be changed once the logger is shared through Wrap.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.clock = now }
}
