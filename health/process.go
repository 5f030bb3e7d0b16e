package health

import (
	"runtime"
	"time"

	"github.com/prometheus/procfs"
)

// processStart approximates process start for uptime reporting.
var processStart = time.Now()

// MemoryUsage is a snapshot of process memory in bytes.
type MemoryUsage struct {
	// RSS is the resident set size. Falls back to the runtime's total
	// obtained memory where /proc is unavailable.
	RSS uint64 `json:"rss"`

	// HeapTotal is memory obtained from the OS for the heap.
	HeapTotal uint64 `json:"heapTotal"`

	// HeapUsed is bytes of allocated heap objects.
	HeapUsed uint64 `json:"heapUsed"`

	// External is runtime memory outside the heap (stacks, GC metadata).
	External uint64 `json:"external"`
}

// Uptime returns how long the process has been running.
func Uptime() time.Duration {
	return time.Since(processStart)
}

// ReadMemoryUsage takes a memory snapshot of the current process.
func ReadMemoryUsage() MemoryUsage {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	usage := MemoryUsage{
		RSS:       stats.Sys,
		HeapTotal: stats.HeapSys,
		HeapUsed:  stats.HeapAlloc,
	}
	if stats.Sys > stats.HeapSys {
		usage.External = stats.Sys - stats.HeapSys
	}
	if rss, ok := residentMemory(); ok {
		usage.RSS = rss
	}
	return usage
}

func residentMemory() (uint64, bool) {
	proc, err := procfs.Self()
	if err != nil {
		return 0, false
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, false
	}
	rss := stat.ResidentMemory()
	if rss <= 0 {
		return 0, false
	}
	return uint64(rss), true
}
