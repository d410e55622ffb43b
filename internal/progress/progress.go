// Package progress tracks transfer throughput for display.
package progress

import (
	"fmt"
	"time"
)

// Stats accumulates transferred bytes and derives speeds. Transfers are
// strictly sequential, so no synchronization is needed.
type Stats struct {
	totalBytes int64
	lastBytes  int64
	startTime  time.Time
	lastTime   time.Time
	lastSpeed  float64
}

// Result is a point-in-time throughput reading.
type Result struct {
	TotalBytes int64
	SpeedBps   float64
}

func NewStats() *Stats {
	now := time.Now()
	return &Stats{startTime: now, lastTime: now}
}

// Reset restarts the clock and byte counters for a new transfer.
func (s *Stats) Reset() {
	now := time.Now()
	s.totalBytes = 0
	s.lastBytes = 0
	s.startTime = now
	s.lastTime = now
	s.lastSpeed = 0
}

// Update adds n transferred bytes.
func (s *Stats) Update(n int64) {
	s.totalBytes += n
}

// Snapshot reads the current totals. With final set, speed is averaged
// over the whole transfer instead of the window since the last reading.
func (s *Stats) Snapshot(now time.Time, final bool) Result {
	var timeDiff float64
	var bytesDiff int64

	if final {
		timeDiff = now.Sub(s.startTime).Seconds()
		bytesDiff = s.totalBytes
	} else {
		timeDiff = now.Sub(s.lastTime).Seconds()
		bytesDiff = s.totalBytes - s.lastBytes
	}

	var speed float64
	if timeDiff > 0 {
		speed = float64(bytesDiff) / timeDiff
		s.lastSpeed = speed
	} else {
		speed = s.lastSpeed
	}

	s.lastTime = now
	s.lastBytes = s.totalBytes

	return Result{TotalBytes: s.totalBytes, SpeedBps: speed}
}

// FormatBytes renders a byte count with IEC units.
func FormatBytes(bytes int64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB"}
	value := float64(bytes)

	for _, unit := range units {
		if value < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f YiB", value)
}
