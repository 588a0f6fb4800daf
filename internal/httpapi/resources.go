package httpapi

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// hostResources is a lightweight snapshot of host capacity, surfaced
// on /status alongside per-engine availability so operators can
// correlate engine failures with resource pressure.
type hostResources struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

func sampleHostResources() hostResources {
	var out hostResources
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		out.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		out.MemoryPercent = vm.UsedPercent
	}
	return out
}
