// Package procstat samples live process statistics for status endpoints.
package procstat

import (
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time view of a session's OS process.
type Stats struct {
	Running    bool    `json:"is_running"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
}

// Sample returns stats for pid. A process that has already exited (or
// that we cannot inspect) reports Running=false with zeroed gauges.
func Sample(pid int) Stats {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return Stats{}
	}

	running, err := proc.IsRunning()
	if err != nil || !running {
		return Stats{}
	}

	stats := Stats{Running: true}
	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		stats.MemoryMB = float64(mem.RSS) / 1024.0 / 1024.0
	}
	return stats
}
