// Package sysinfo collects a point-in-time snapshot of host load for the
// health endpoint.
package sysinfo

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats is one snapshot of host CPU and memory usage.
type Stats struct {
	CPULoadPercent float64 `json:"cpuLoadPercent"`
	RAMUsedMB      float64 `json:"ramUsedMb"`
	RAMTotalMB     float64 `json:"ramTotalMb"`
}

// Collect gathers current host statistics.
//
// CPU usage is computed against the previous call (interval 0), so the
// first reading after startup may be zero. RAM "used" is Total minus
// Available: the kernel's file cache does not count as occupied.
func Collect() (*Stats, error) {
	stats := &Stats{}

	percentages, err := cpu.Percent(0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read CPU statistics: %w", err)
	}
	if len(percentages) > 0 {
		stats.CPULoadPercent = percentages[0]
	}

	vmem, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to read memory statistics: %w", err)
	}
	used := vmem.Total - vmem.Available
	stats.RAMUsedMB = float64(used) / 1024.0 / 1024.0
	stats.RAMTotalMB = float64(vmem.Total) / 1024.0 / 1024.0

	return stats, nil
}
