package progress

import "time"

// Nop is a ProgressLog that discards everything.
//
// It is the zero-overhead stand-in for code that takes a ProgressLog but is
// run with progress reporting disabled: every method body is empty and
// inlines away.
type Nop struct{}

var _ ProgressLog = Nop{}

// Discard returns a ProgressLog that does nothing.
func Discard() Nop { return Nop{} }

func (Nop) Start(string)           {}
func (Nop) Update()                {}
func (Nop) UpdateWithCount(uint64) {}
func (Nop) LightUpdate()           {}
func (Nop) UpdateAndDisplay()      {}
func (Nop) Stop(string)            {}
func (Nop) Done()                  {}
func (Nop) DoneWithCount(uint64)   {}
func (Nop) Refresh()               {}
func (Nop) Log(string, ...any)     {}
func (Nop) Count() uint64          { return 0 }
func (Nop) Elapsed() (time.Duration, bool) {
	return 0, false
}
