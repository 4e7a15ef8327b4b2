package storage

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// Mode selects how download buffers are backed.
//
// The mode is fixed for the process lifetime; Hybrid defers the actual
// per-buffer choice to runtime memory probing.
type Mode int

const (
	// ModeDisk always buffers downloads in files under the cache directory.
	ModeDisk Mode = iota

	// ModeMemory buffers downloads in memory when enough is available,
	// silently falling back to disk otherwise.
	ModeMemory

	// ModeHybrid buffers small downloads in memory and large ones on disk,
	// subject to the same availability check as ModeMemory.
	ModeHybrid
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "disk":
		return ModeDisk, nil
	case "memory":
		return ModeMemory, nil
	case "hybrid":
		return ModeHybrid, nil
	}
	return ModeDisk, fmt.Errorf("unknown storage mode %q", s)
}

// String returns the configuration spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDisk:
		return "disk"
	case ModeMemory:
		return "memory"
	case ModeHybrid:
		return "hybrid"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Decision is the outcome of the storage policy for one buffer.
type Decision int

const (
	// UseDisk backs the buffer with a file in the cache directory.
	UseDisk Decision = iota

	// UseMemory backs the buffer with an in-memory byte slice.
	UseMemory
)

// String returns a short human-readable form for log output.
func (d Decision) String() string {
	if d == UseMemory {
		return "memory"
	}
	return "disk"
}

// Decide picks the backing store for a single download buffer.
//
// contentLength is the expected payload size in bytes, 0 when unknown.
// availableMB is the currently available system memory in MiB, typically
// obtained from a MemoryProbe. thresholdMB is the largest size Hybrid mode
// will keep in memory, and bufferMB is the headroom that must remain
// available on top of the payload itself.
//
// The result is deterministic given its inputs. An insufficient-memory
// outcome is a silent fallback to disk, never an error.
func Decide(mode Mode, contentLength, availableMB, thresholdMB, bufferMB uint64) Decision {
	sizeMB := contentLength / (1 << 20)

	switch mode {
	case ModeMemory:
		if availableMB >= sizeMB+bufferMB {
			return UseMemory
		}
		return UseDisk
	case ModeHybrid:
		if sizeMB > thresholdMB {
			return UseDisk
		}
		if availableMB >= sizeMB+bufferMB {
			return UseMemory
		}
		return UseDisk
	}

	return UseDisk
}

// MemoryProbe reports currently available system memory in MiB.
//
// The probe is a point-in-time snapshot with no freshness guarantee between
// the probe and any later allocation. It is injected so tests can substitute
// deterministic values.
type MemoryProbe func() (availableMB uint64, err error)

// SystemMemoryProbe queries the operating system for available memory.
func SystemMemoryProbe() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available / (1 << 20), nil
}
