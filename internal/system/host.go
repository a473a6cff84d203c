package system

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// DiskFree returns the bytes available to unprivileged users on the
// filesystem holding path.
func DiskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// HostStats is a snapshot used by the performance report.
type HostStats struct {
	LogicalCPUs   int
	MemTotal      uint64
	MemUsed       uint64
	MemPercent    float64
	HeapAlloc     uint64
	NumGoroutines int
}

func ReadHostStats() (HostStats, error) {
	var st HostStats

	n, err := cpu.Counts(true)
	if err != nil {
		return st, fmt.Errorf("cpu counts: %w", err)
	}
	st.LogicalCPUs = n

	vm, err := mem.VirtualMemory()
	if err != nil {
		return st, fmt.Errorf("virtual memory: %w", err)
	}
	st.MemTotal = vm.Total
	st.MemUsed = vm.Used
	st.MemPercent = vm.UsedPercent

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.HeapAlloc = ms.HeapAlloc
	st.NumGoroutines = runtime.NumGoroutine()
	return st, nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
