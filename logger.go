package progress

import (
	"time"

	"github.com/gertd/go-pluralize"
	"github.com/go-logr/logr"
)

// Logger is the single-threaded progress counter.
//
// It is not safe for concurrent use; wrap it with Wrap to share one logical
// counter between workers. All configuration can be changed mid-run through
// the Set* methods.
//
// A Logger moves between three states: fresh (never started), running, and
// stopped. Start always begins a new epoch, resetting the count; updates
// while stopped are ignored. An Update on a fresh logger implicitly starts
// it from a zero baseline at that instant.
type Logger struct {
	base logr.Logger // sink as handed to New, without target name
	log  logr.Logger // sink actually written to

	itemName string
	// plural caches the pluralized item name. Pluralization is needed on
	// every status line but is comparatively expensive, so it is recomputed
	// only when the item name changes.
	plural    string
	pluralize *pluralize.Client

	logInterval     time.Duration
	expectedUpdates uint64 // 0 disables percentage/ETA
	timeUnit        TimeUnit
	localSpeed      bool
	lightMask       uint64

	clock func() time.Time

	startTime   time.Time
	stopTime    time.Time
	lastLogTime time.Time
	nextLogTime time.Time
	count       uint64
	lastCount   uint64 // count at the last emitted line, for local speed
	lightCalls  uint64

	mem *memSampler // nil unless memory display is enabled
}

var _ ProgressLog = (*Logger)(nil)

// New creates a Logger writing status lines to log at the info level.
// There is no process-wide default sink; the sink is always explicit.
func New(log logr.Logger, opts ...Option) *Logger {
	l := &Logger{
		base:        log,
		log:         log,
		itemName:    "item",
		logInterval: DefaultLogInterval,
		lightMask:   DefaultLightUpdateMask,
		clock:       time.Now,
		pluralize:   pluralize.NewClient(),
	}
	l.plural = l.pluralize.Plural(l.itemName)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetItemName sets the display name of one unit of work and recomputes the
// cached plural form.
func (l *Logger) SetItemName(name string) *Logger {
	l.itemName = name
	l.plural = l.pluralize.Plural(name)
	return l
}

// SetLogInterval sets the minimum time between status lines. An interval of
// 0 logs on every update.
func (l *Logger) SetLogInterval(d time.Duration) *Logger {
	l.logInterval = d
	return l
}

// SetExpectedUpdates sets the anticipated total number of items; 0 disables
// the percentage/ETA segment.
func (l *Logger) SetExpectedUpdates(n uint64) *Logger {
	l.expectedUpdates = n
	return l
}

// SetTimeUnit pins the unit used for rates and timings; UnitAuto restores
// per-line unit selection.
func (l *Logger) SetTimeUnit(u TimeUnit) *Logger {
	l.timeUnit = u
	return l
}

// SetLocalSpeed toggles the bracketed rate-since-last-line segment.
func (l *Logger) SetLocalSpeed(on bool) *Logger {
	l.localSpeed = on
	return l
}

// SetDisplayMemory toggles the memory-usage suffix on status lines.
func (l *Logger) SetDisplayMemory(on bool) *Logger {
	switch {
	case on && l.mem == nil:
		l.mem = newMemSampler()
	case !on:
		l.mem = nil
	}
	return l
}

// SetLogTarget names the sink used for output (logr WithName).
func (l *Logger) SetLogTarget(target string) *Logger {
	l.log = l.base.WithName(target)
	return l
}

// SetLightUpdateMask sets the sampling mask used by LightUpdate. The mask
// must be a power of two minus one.
func (l *Logger) SetLightUpdateMask(mask uint64) *Logger {
	l.lightMask = mask
	return l
}

// Start begins a new measurement epoch and logs msg (if non-empty)
// immediately. Any previous counters are discarded.
func (l *Logger) Start(msg string) {
	now := l.clock()
	l.startTime = now
	l.stopTime = time.Time{}
	l.count = 0
	l.lastCount = 0
	l.lightCalls = 0
	l.lastLogTime = now
	l.nextLogTime = now.Add(l.logInterval)
	if msg != "" {
		l.log.Info(msg)
	}
}

// implicitStart arms a fresh logger from a zero baseline without logging.
func (l *Logger) implicitStart(now time.Time) {
	l.startTime = now
	l.lastLogTime = now
	l.nextLogTime = now.Add(l.logInterval)
}

// ready reports whether counting can proceed. Updates on a stopped logger
// are ignored; an update with work on a fresh logger implicitly starts it.
func (l *Logger) ready(n uint64, now time.Time) bool {
	if !l.stopTime.IsZero() {
		return false
	}
	if l.startTime.IsZero() {
		if n == 0 {
			return false
		}
		l.implicitStart(now)
	}
	return true
}

// Update adds one processed item and logs if the interval has elapsed.
func (l *Logger) Update() {
	l.updateWithCountAndTime(1, l.clock())
}

// UpdateWithCount adds n processed items and logs if the interval has
// elapsed.
func (l *Logger) UpdateWithCount(n uint64) {
	l.updateWithCountAndTime(n, l.clock())
}

// updateWithCountAndTime is the hot-path variant taking a pre-captured
// timestamp, used by concurrent handles to avoid a clock read under lock.
// A zero n on a running logger still runs the throttle check, which is what
// lets a flush force visibility.
func (l *Logger) updateWithCountAndTime(n uint64, now time.Time) {
	if !l.ready(n, now) {
		return
	}
	l.count += n
	l.maybeEmit(now)
}

// LightUpdate adds one processed item but reads the clock only once every
// lightMask+1 calls. The first call after construction or Start always
// checks, so short runs still produce output.
func (l *Logger) LightUpdate() {
	if !l.stopTime.IsZero() {
		return
	}
	if l.startTime.IsZero() {
		l.implicitStart(l.clock())
	}
	l.count++
	if l.lightCalls&l.lightMask == 0 {
		l.maybeEmit(l.clock())
	}
	l.lightCalls++
}

// UpdateAndDisplay adds one processed item and logs unconditionally.
func (l *Logger) UpdateAndDisplay() {
	now := l.clock()
	if !l.ready(1, now) {
		return
	}
	l.count++
	l.emit(now)
}

// Stop ends the epoch, fixing the elapsed time. The expected number of
// updates is cleared so a reused logger does not show a stale ETA.
func (l *Logger) Stop(msg string) {
	l.stopTime = l.clock()
	l.expectedUpdates = 0
	if msg != "" {
		l.log.Info(msg)
	}
}

// Done stops the logger and unconditionally logs "Completed." followed by a
// final summary line.
func (l *Logger) Done() {
	l.Stop("")
	l.log.Info("Completed.")
	l.Refresh()
	l.log.Info(l.statusLine(l.clock()))
}

// DoneWithCount sets the count to n before reporting completion. Useful when
// per-item updates were skipped for performance, or when the logger was used
// as a plain timer.
func (l *Logger) DoneWithCount(n uint64) {
	l.count = n
	l.Done()
}

// Refresh re-samples memory usage without logging or changing counters.
func (l *Logger) Refresh() {
	if l.mem != nil {
		l.mem.refresh()
	}
}

// Elapsed returns the time since Start, or between Start and Stop once
// stopped; false if the logger was never started.
func (l *Logger) Elapsed() (time.Duration, bool) {
	if l.startTime.IsZero() {
		return 0, false
	}
	if !l.stopTime.IsZero() {
		return l.stopTime.Sub(l.startTime), true
	}
	return l.clock().Sub(l.startTime), true
}

// Count returns the number of items recorded in the current epoch.
func (l *Logger) Count() uint64 {
	return l.count
}

// Log emits msg through the logger's sink at the status-line severity.
func (l *Logger) Log(msg string, keysAndValues ...any) {
	l.log.Info(msg, keysAndValues...)
}

// CloneConfig returns a fresh Logger with the same configuration but all
// counters reset to the pre-Start state. It is a configuration template, not
// a running snapshot.
func (l *Logger) CloneConfig() *Logger {
	c := &Logger{
		base:            l.base,
		log:             l.log,
		itemName:        l.itemName,
		plural:          l.plural,
		pluralize:       l.pluralize,
		logInterval:     l.logInterval,
		expectedUpdates: l.expectedUpdates,
		timeUnit:        l.timeUnit,
		localSpeed:      l.localSpeed,
		lightMask:       l.lightMask,
		clock:           l.clock,
	}
	if l.mem != nil {
		c.mem = newMemSampler()
	}
	return c
}

// maybeEmit logs a status line if the log interval has elapsed.
func (l *Logger) maybeEmit(now time.Time) {
	if !now.Before(l.nextLogTime) {
		l.emit(now)
	}
}

// emit logs a status line and re-arms the throttle.
func (l *Logger) emit(now time.Time) {
	l.Refresh()
	l.log.Info(l.statusLine(now))
	l.lastCount = l.count
	l.lastLogTime = now
	l.nextLogTime = now.Add(l.logInterval)
}
