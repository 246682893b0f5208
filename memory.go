package progress

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// memSampler caches the most recent memory snapshot for the current process
// and the system. Sampling only happens in refresh, never while rendering a
// status line, so rendering stays side-effect free.
type memSampler struct {
	proc *process.Process

	resident uint64
	virtual  uint64
	avail    uint64
	free     uint64
	total    uint64
}

func newMemSampler() *memSampler {
	s := &memSampler{}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	s.refresh()
	return s
}

// refresh re-samples process and system memory. Failures leave the previous
// snapshot in place; the status line then shows the last known values.
func (s *memSampler) refresh() {
	if s.proc != nil {
		if info, err := s.proc.MemoryInfo(); err == nil && info != nil {
			s.resident = info.RSS
			s.virtual = info.VMS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		s.avail = vm.Available
		s.free = vm.Free
		s.total = vm.Total
	}
}

// status renders the cached snapshot.
func (s *memSampler) status() string {
	return fmt.Sprintf("res/vir/avail/free/total mem %s/%s/%s/%s/%s",
		humanize.IBytes(s.resident),
		humanize.IBytes(s.virtual),
		humanize.IBytes(s.avail),
		humanize.IBytes(s.free),
		humanize.IBytes(s.total))
}
