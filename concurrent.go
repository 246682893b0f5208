package progress

import (
	"sync"
	"time"
)

// sharedLogger is the single source of truth for aggregate progress: one
// Logger behind one mutex, referenced by every handle spawned from the same
// wrapper.
type sharedLogger struct {
	mu    sync.Mutex
	inner *Logger
	// now is the inner logger's clock, copied out so handles can snapshot
	// the time before taking the lock.
	now func() time.Time
}

// ConcurrentLogger lets many workers report against one logical counter.
//
// The value returned by Wrap is itself a handle; Spawn creates further
// handles sharing the same inner Logger. Each handle keeps a private,
// unsynchronized buffer of pending counts and merges it into the shared
// logger under the mutex only when a threshold is reached (or, for
// LightUpdate, once every mask+1 calls), so the per-item cost stays close
// to a plain increment no matter how many workers are active.
//
// A handle is owned by a single goroutine and must not be shared; the shared
// state behind it is safe for any number of handles. Every handle must be
// flushed when its worker finishes — use `defer h.Close()` — otherwise its
// buffered count is lost.
type ConcurrentLogger struct {
	shared     *sharedLogger
	localCount uint64
	threshold  uint64
	lightMask  uint64
	lightCalls uint64
}

var _ ProgressLog = (*ConcurrentLogger)(nil)

// Wrap takes ownership of a configured (not yet started) Logger and shares
// it behind a mutex, using DefaultThreshold for merges. The Logger must not
// be used directly afterwards.
func Wrap(inner *Logger) *ConcurrentLogger {
	return WrapWithThreshold(inner, DefaultThreshold)
}

// WrapWithThreshold is Wrap with an explicit merge threshold.
func WrapWithThreshold(inner *Logger, threshold uint64) *ConcurrentLogger {
	return &ConcurrentLogger{
		shared:    &sharedLogger{inner: inner, now: inner.clock},
		threshold: threshold,
		lightMask: DefaultConcurrentLightUpdateMask,
	}
}

// Spawn returns a fresh handle with an empty buffer referencing the same
// shared logger. Handles inherit the spawning handle's threshold and mask
// but keep them independently afterwards.
func (c *ConcurrentLogger) Spawn() *ConcurrentLogger {
	return &ConcurrentLogger{
		shared:    c.shared,
		threshold: c.threshold,
		lightMask: c.lightMask,
	}
}

// SetThreshold sets this handle's merge threshold. Handles sharing one inner
// logger have independent thresholds.
func (c *ConcurrentLogger) SetThreshold(threshold uint64) *ConcurrentLogger {
	c.threshold = threshold
	return c
}

// SetLightUpdateMask sets this handle's LightUpdate merge mask. The mask
// must be a power of two minus one.
func (c *ConcurrentLogger) SetLightUpdateMask(mask uint64) *ConcurrentLogger {
	c.lightMask = mask
	return c
}

// merge adds n into the shared logger and runs its throttle check. The
// timestamp is captured before the lock so the critical section stays
// minimal. The local buffer is zeroed exactly once per merge; counts are
// never added twice.
func (c *ConcurrentLogger) merge(n uint64) {
	now := c.shared.now()
	c.shared.mu.Lock()
	c.shared.inner.updateWithCountAndTime(n, now)
	c.shared.mu.Unlock()
	c.localCount = 0
}

// Start starts the shared logger and resets this handle's buffer.
func (c *ConcurrentLogger) Start(msg string) {
	c.shared.mu.Lock()
	c.shared.inner.Start(msg)
	c.shared.mu.Unlock()
	c.localCount = 0
	c.lightCalls = 0
}

// Update buffers one item, merging when the threshold is reached.
func (c *ConcurrentLogger) Update() {
	c.UpdateWithCount(1)
}

// UpdateWithCount buffers n items, merging when the threshold is reached.
func (c *ConcurrentLogger) UpdateWithCount(n uint64) {
	total := c.localCount + n
	if total < c.localCount {
		// Sum overflows; merge in two steps.
		now := c.shared.now()
		c.shared.mu.Lock()
		c.shared.inner.updateWithCountAndTime(c.localCount, now)
		c.shared.inner.updateWithCountAndTime(n, now)
		c.shared.mu.Unlock()
		c.localCount = 0
		return
	}
	if total >= c.threshold {
		c.merge(total)
		return
	}
	c.localCount = total
}

// LightUpdate buffers one item and merges only once every lightMask+1 calls,
// regardless of the buffered amount. The first call always merges, so short
// runs still become visible.
func (c *ConcurrentLogger) LightUpdate() {
	c.localCount++
	if c.lightCalls&c.lightMask == 0 {
		c.merge(c.localCount)
	}
	c.lightCalls++
}

// UpdateAndDisplay buffers one item, merges, and forces a status line.
func (c *ConcurrentLogger) UpdateAndDisplay() {
	n := c.localCount + 1
	now := c.shared.now()
	c.shared.mu.Lock()
	if c.shared.inner.ready(n, now) {
		c.shared.inner.count += n
		c.shared.inner.emit(now)
	}
	c.shared.mu.Unlock()
	c.localCount = 0
}

// Flush merges this handle's buffer immediately, even when it is empty; an
// empty flush still runs the shared logger's throttle check, so output
// becomes visible even if no handle ever reaches its threshold.
func (c *ConcurrentLogger) Flush() {
	c.merge(c.localCount)
}

// Close flushes the handle. Defer it at handle creation so a finishing
// worker can never lose buffered progress.
func (c *ConcurrentLogger) Close() {
	c.Flush()
}

// Stop merges this handle's buffer and stops the shared logger.
func (c *ConcurrentLogger) Stop(msg string) {
	now := c.shared.now()
	c.shared.mu.Lock()
	c.shared.inner.updateWithCountAndTime(c.localCount, now)
	c.shared.inner.Stop(msg)
	c.shared.mu.Unlock()
	c.localCount = 0
}

// Done merges this handle's buffer and completes the shared logger.
// Handles other than the caller must have been flushed already for the
// final summary to show the exact total.
func (c *ConcurrentLogger) Done() {
	now := c.shared.now()
	c.shared.mu.Lock()
	c.shared.inner.updateWithCountAndTime(c.localCount, now)
	c.shared.inner.Done()
	c.shared.mu.Unlock()
	c.localCount = 0
}

// DoneWithCount completes the shared logger with an exact final count,
// discarding any buffered amounts.
func (c *ConcurrentLogger) DoneWithCount(n uint64) {
	c.shared.mu.Lock()
	c.shared.inner.DoneWithCount(n)
	c.shared.mu.Unlock()
	c.localCount = 0
}

// Refresh re-samples memory usage on the shared logger.
func (c *ConcurrentLogger) Refresh() {
	c.shared.mu.Lock()
	c.shared.inner.Refresh()
	c.shared.mu.Unlock()
}

// Elapsed reports the shared logger's elapsed time.
func (c *ConcurrentLogger) Elapsed() (time.Duration, bool) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	return c.shared.inner.Elapsed()
}

// Count returns the shared count. It does not include any handle's
// unmerged buffer.
func (c *ConcurrentLogger) Count() uint64 {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	return c.shared.inner.count
}

// Log emits msg through the shared logger's sink.
func (c *ConcurrentLogger) Log(msg string, keysAndValues ...any) {
	c.shared.mu.Lock()
	c.shared.inner.Log(msg, keysAndValues...)
	c.shared.mu.Unlock()
}

// SetItemName delegates to the shared logger.
func (c *ConcurrentLogger) SetItemName(name string) *ConcurrentLogger {
	c.shared.mu.Lock()
	c.shared.inner.SetItemName(name)
	c.shared.mu.Unlock()
	return c
}

// SetLogInterval delegates to the shared logger.
func (c *ConcurrentLogger) SetLogInterval(d time.Duration) *ConcurrentLogger {
	c.shared.mu.Lock()
	c.shared.inner.SetLogInterval(d)
	c.shared.mu.Unlock()
	return c
}

// SetExpectedUpdates delegates to the shared logger.
func (c *ConcurrentLogger) SetExpectedUpdates(n uint64) *ConcurrentLogger {
	c.shared.mu.Lock()
	c.shared.inner.SetExpectedUpdates(n)
	c.shared.mu.Unlock()
	return c
}

// SetTimeUnit delegates to the shared logger.
func (c *ConcurrentLogger) SetTimeUnit(u TimeUnit) *ConcurrentLogger {
	c.shared.mu.Lock()
	c.shared.inner.SetTimeUnit(u)
	c.shared.mu.Unlock()
	return c
}

// SetLocalSpeed delegates to the shared logger.
func (c *ConcurrentLogger) SetLocalSpeed(on bool) *ConcurrentLogger {
	c.shared.mu.Lock()
	c.shared.inner.SetLocalSpeed(on)
	c.shared.mu.Unlock()
	return c
}

// SetDisplayMemory delegates to the shared logger.
func (c *ConcurrentLogger) SetDisplayMemory(on bool) *ConcurrentLogger {
	c.shared.mu.Lock()
	c.shared.inner.SetDisplayMemory(on)
	c.shared.mu.Unlock()
	return c
}

// SetLogTarget delegates to the shared logger.
func (c *ConcurrentLogger) SetLogTarget(target string) *ConcurrentLogger {
	c.shared.mu.Lock()
	c.shared.inner.SetLogTarget(target)
	c.shared.mu.Unlock()
	return c
}
