// Package sysinfo samples process-level CPU and memory usage for attaching
// to long-running job progress (offline render).
package sysinfo

import (
	"os"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// Capabilities reports the host CPU features relevant to picking a DSP
// block size: wider SIMD registers amortise the per-block call overhead of
// the EQ and plugin chain better at larger block sizes.
type Capabilities struct {
	BrandName string
	HasAVX2   bool
	HasAVX512 bool
	LogicalCores int
}

// DetectCapabilities reads the host CPU's feature flags once via cpuid.
func DetectCapabilities() Capabilities {
	return Capabilities{
		BrandName:    cpuid.CPU.BrandName,
		HasAVX2:      cpuid.CPU.Supports(cpuid.AVX2),
		HasAVX512:    cpuid.CPU.Supports(cpuid.AVX512F),
		LogicalCores: cpuid.CPU.LogicalCores,
	}
}

// PreferredRenderBlockFrames suggests a render block size scaled to the
// host's SIMD width, never below the caller-supplied floor.
func (c Capabilities) PreferredRenderBlockFrames(floor int) int {
	switch {
	case c.HasAVX512:
		return max(floor, 16384)
	case c.HasAVX2:
		return max(floor, 8192)
	default:
		return max(floor, 4096)
	}
}

// Snapshot is a point-in-time resource sample.
type Snapshot struct {
	CPUPercent float64
	RSSBytes   uint64
	SampledAt  time.Time
}

// Sample reads the current process's CPU percent (gopsutil's
// Process.CPUPercent: total CPU time averaged over the time since the
// process started) and resident set size.
func Sample() (Snapshot, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) // #nosec G115 -- PID fits int32
	if err != nil {
		return Snapshot{}, errors.New(err).Category(errors.CategorySystem).Build()
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		cpuPercent = 0
	}

	var rss uint64
	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		rss = memInfo.RSS
	}

	return Snapshot{CPUPercent: cpuPercent, RSSBytes: rss, SampledAt: time.Now()}, nil
}

// SystemCPUPercent samples host-wide CPU utilisation over the given
// interval (blocking); interval 0 reports the instantaneous delta since the
// last call.
func SystemCPUPercent(interval time.Duration) (float64, error) {
	percents, err := cpu.Percent(interval, false)
	if err != nil {
		return 0, errors.New(err).Category(errors.CategorySystem).Build()
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}
