// Package progress provides time-throttled progress logging for long-running,
// item-processing workloads.
//
// A Logger counts processed items and periodically emits a human-readable
// status line (count, elapsed time, rate, optional percentage/ETA and memory
// usage) through a logr.Logger sink. Emission is throttled to a configurable
// interval, so the cost and volume of output stay bounded no matter how fast
// items are processed.
//
// Basic usage:
//
//	pl := progress.New(log, progress.WithItemName("file"))
//	pl.Start("Hashing files...")
//	for _, f := range files {
//	    hash(f)
//	    pl.Update()
//	}
//	pl.Done()
//
// For extremely cheap per-item work, LightUpdate amortizes the cost of
// reading the clock by checking the time only once every
// DefaultLightUpdateMask+1 calls.
//
// # Concurrent use
//
// Many workers can report against one logical counter through a
// ConcurrentLogger. Wrap a configured Logger and hand each worker its own
// handle via Spawn; handles buffer counts privately and merge them into the
// shared logger under a mutex only when a threshold is reached, keeping the
// per-item cost of reporting close to a plain increment:
//
//	cpl := progress.Wrap(progress.New(log, progress.WithItemName("record")))
//	cpl.Start("Loading records...")
//	g := new(errgroup.Group)
//	for i := 0; i < workers; i++ {
//	    h := cpl.Spawn()
//	    g.Go(func() error {
//	        defer h.Close()
//	        for job := range jobs {
//	            process(job)
//	            h.Update()
//	        }
//	        return nil
//	    })
//	}
//	g.Wait()
//	cpl.Done()
//
// A handle must be closed (or flushed) when its worker finishes; Close merges
// any buffered count so no progress is lost. Stop and Done on the wrapper
// flush the calling handle automatically.
//
// # Disabling progress output
//
// Code that reports progress can accept the ProgressLog interface and be
// handed Discard() when no output is wanted. All Nop methods are empty and
// compile down to nothing.
package progress
