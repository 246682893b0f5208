package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineSink captures every emitted log line for inspection.
type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) logger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		s.mu.Lock()
		s.lines = append(s.lines, args)
		s.mu.Unlock()
	}, funcr.Options{})
}

func (s *lineSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.lines...)
}

func (s *lineSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestLoggerLogsEveryUpdateWithZeroInterval(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithItemName("pumpkin"),
		WithLogInterval(0),
		WithClock(clk.Now))

	pl.Start("Smashing pumpkins...")
	for i := 0; i < 3; i++ {
		clk.Advance(time.Second)
		pl.Update()
	}

	lines := sink.all()
	require.Len(t, lines, 4, "expected start line plus one line per update")
	assert.Contains(t, lines[0], "Smashing pumpkins...")
	assert.Contains(t, lines[1], "1 pumpkin,")
	assert.Contains(t, lines[2], "2 pumpkins,")
	assert.Contains(t, lines[3], "3 pumpkins,")
	assert.Equal(t, uint64(3), pl.Count())
}

func TestLoggerThrottleLineCount(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithLogInterval(100*time.Millisecond),
		WithClock(clk.Now))

	pl.Start("starting")
	for i := 0; i < 100; i++ {
		clk.Advance(10 * time.Millisecond)
		pl.Update()
	}

	// floor(T/D) + 1: ten throttled lines over one second plus the start line.
	assert.Equal(t, 11, sink.count())
}

func TestLoggerLightUpdateSampling(t *testing.T) {
	sink := &lineSink{}
	reads := 0
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		reads++
		return base.Add(time.Duration(reads) * time.Millisecond)
	}

	pl := New(sink.logger(),
		WithLogInterval(0),
		WithLightUpdateMask(3),
		WithClock(clock))

	pl.Start("go")
	readsAfterStart := reads
	for i := 0; i < 9; i++ {
		pl.LightUpdate()
	}

	// With mask 3 the clock is read on call indices 0, 4 and 8 only.
	assert.Equal(t, readsAfterStart+3, reads)
	// Each sampled check emits, since the interval is zero.
	assert.Equal(t, 4, sink.count())
	assert.Equal(t, uint64(9), pl.Count())
}

func TestLoggerUpdateBeforeStartImplicitlyStarts(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(), WithLogInterval(0), WithClock(clk.Now))

	pl.Update()

	assert.Equal(t, uint64(1), pl.Count())
	elapsed, ok := pl.Elapsed()
	require.True(t, ok, "implicit start should arm the epoch")
	assert.Equal(t, time.Duration(0), elapsed)
	assert.Equal(t, 1, sink.count())
}

func TestLoggerUpdatesAfterStopAreIgnored(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(), WithLogInterval(time.Hour), WithClock(clk.Now))

	pl.Start("")
	pl.Update()
	pl.Update()
	pl.Stop("")

	pl.Update()
	pl.UpdateWithCount(10)
	pl.LightUpdate()

	assert.Equal(t, uint64(2), pl.Count())
}

func TestLoggerStartResetsEpoch(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(), WithLogInterval(time.Hour), WithClock(clk.Now))

	pl.Start("first")
	pl.UpdateWithCount(5)
	clk.Advance(time.Second)
	pl.Stop("")

	pl.Start("second")
	assert.Equal(t, uint64(0), pl.Count())
	pl.Update()
	assert.Equal(t, uint64(1), pl.Count(), "counting must resume after re-start")
}

func TestLoggerZeroElapsedOmitsRateAndETA(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithLogInterval(0),
		WithExpectedUpdates(100),
		WithClock(clk.Now))

	pl.Start("")
	pl.Update() // no time has passed

	lines := sink.all()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "1 item")
	assert.NotContains(t, lines[0], "/s")
	assert.NotContains(t, lines[0], "to end")
	assert.NotContains(t, lines[0], "NaN")
	assert.NotContains(t, lines[0], "Inf")
}

func TestLoggerExpectedUpdatesETA(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithLogInterval(time.Hour),
		WithExpectedUpdates(4),
		WithClock(clk.Now))

	pl.Start("")
	clk.Advance(time.Second)
	pl.UpdateAndDisplay()

	lines := sink.all()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "25.00% done")
	assert.Contains(t, lines[0], "3s to end")
}

func TestLoggerStopClearsExpectedUpdates(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithLogInterval(time.Hour),
		WithExpectedUpdates(10),
		WithClock(clk.Now))

	pl.Start("")
	pl.Update()
	clk.Advance(time.Second)
	pl.Stop("")

	pl.Start("")
	clk.Advance(time.Second)
	pl.UpdateAndDisplay()

	lines := sink.all()
	assert.NotContains(t, lines[len(lines)-1], "% done",
		"a reused logger must not display a stale ETA")
}

func TestLoggerDoneEmitsCompletedAndSummary(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(), WithLogInterval(time.Hour), WithClock(clk.Now))

	pl.Start("crunching")
	pl.UpdateWithCount(42)
	clk.Advance(2 * time.Second)
	pl.Done()

	lines := sink.all()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Completed.")
	assert.Contains(t, lines[2], "Elapsed: 2s")
	assert.Contains(t, lines[2], "42 items")
}

func TestLoggerDoneWithCountOverridesCount(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(), WithLogInterval(time.Hour), WithClock(clk.Now))

	pl.Start("")
	pl.Update()
	clk.Advance(time.Second)
	pl.DoneWithCount(1000)

	assert.Equal(t, uint64(1000), pl.Count())
	lines := sink.all()
	assert.Contains(t, lines[len(lines)-1], "1,000 items")
}

func TestLoggerSetItemNameRecomputesPlural(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithItemName("mouse"),
		WithLogInterval(0),
		WithClock(clk.Now))

	pl.Start("")
	clk.Advance(time.Second)
	pl.Update()
	clk.Advance(time.Second)
	pl.Update()

	lines := sink.all()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2 mice")

	pl.SetItemName("box")
	clk.Advance(time.Second)
	pl.Update()
	lines = sink.all()
	assert.Contains(t, lines[2], "3 boxes")
}

func TestLoggerFixedTimeUnit(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithItemName("node"),
		WithLogInterval(time.Hour),
		WithTimeUnit(Seconds),
		WithClock(clk.Now))

	pl.Start("")
	pl.UpdateWithCount(1999)
	clk.Advance(time.Second)
	pl.UpdateAndDisplay()

	lines := sink.all()
	require.Len(t, lines, 1)
	// Pinned unit: no thousands separators, rates always in seconds.
	assert.Contains(t, lines[0], "2000 nodes")
	assert.Contains(t, lines[0], "nodes/s")
	assert.Contains(t, lines[0], "s/node")
}

func TestLoggerLocalSpeed(t *testing.T) {
	sink := &lineSink{}
	clk := newFakeClock()
	pl := New(sink.logger(),
		WithLogInterval(time.Second),
		WithLocalSpeed(true),
		WithClock(clk.Now))

	pl.Start("")
	clk.Advance(time.Second)
	pl.UpdateWithCount(10)
	clk.Advance(time.Second)
	pl.UpdateWithCount(30)

	lines := sink.all()
	require.Len(t, lines, 2)
	// Second line: average 40 items over 2s, local 30 items over the last 1s.
	assert.Contains(t, lines[1], "20.00 items/s")
	assert.Contains(t, lines[1], "[30.00 items/s")
}

// steppingClock returns strictly increasing instants, one step per read, so
// two loggers driven by twin clocks observe identical timelines.
type steppingClock struct {
	base time.Time
	step time.Duration
	n    int
}

func (c *steppingClock) Now() time.Time {
	c.n++
	return c.base.Add(time.Duration(c.n) * c.step)
}

func TestLoggerCloneConfig(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	opts := func(clk *steppingClock) []Option {
		return []Option{
			WithItemName("graph"),
			WithLogInterval(0),
			WithExpectedUpdates(10),
			WithClock(clk.Now),
		}
	}

	scenario := func(pl *Logger) {
		pl.Start("begin")
		pl.Update()
		pl.Update()
		pl.Done()
	}

	templ := New((&lineSink{}).logger(), opts(&steppingClock{base: base, step: time.Second})...)
	templ.Start("")
	templ.UpdateWithCount(7) // dirty the template's counters

	cloneSink := &lineSink{}
	clone := templ.CloneConfig()
	clone.base = cloneSink.logger()
	clone.log = clone.base
	clone.clock = (&steppingClock{base: base, step: time.Second}).Now

	require.Equal(t, uint64(0), clone.Count(), "clone must reset counters")
	_, started := clone.Elapsed()
	require.False(t, started, "clone must be in the pre-Start state")

	freshSink := &lineSink{}
	fresh := New(freshSink.logger(), opts(&steppingClock{base: base, step: time.Second})...)

	scenario(clone)
	scenario(fresh)

	assert.Equal(t, freshSink.all(), cloneSink.all(),
		"clone must log identically to a freshly configured logger")
}

func TestLoggerLogPassesThrough(t *testing.T) {
	sink := &lineSink{}
	pl := New(sink.logger(), WithLogTarget("loader"))

	pl.Log("checkpoint reached", "batch", 7)

	lines := sink.all()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "checkpoint reached")
	assert.Contains(t, lines[0], "batch")
}
