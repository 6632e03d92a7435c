// Package metrics surfaces host and process vitals on the /status
// payload via gopsutil.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time read of host and process vitals.
type Snapshot struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemUsedMB     uint64  `json:"memUsedMb"`
	MemTotalMB    uint64  `json:"memTotalMb"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	Goroutines    int     `json:"goroutines"`
}

// Collect gathers a Snapshot, tolerating partial failures from any one
// gopsutil call by leaving that field at its zero value.
func Collect(ctx context.Context) Snapshot {
	var snap Snapshot
	snap.Goroutines = runtime.NumGoroutine()

	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemUsedMB = vm.Used / (1024 * 1024)
		snap.MemTotalMB = vm.Total / (1024 * 1024)
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		snap.UptimeSeconds = info.Uptime
	}

	return snap
}
