package util

import "time"

// Rate computes the per-second completion rate for a unit count observed
// over dt.
func Rate(units uint64, dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	return float64(units) / dt.Seconds()
}

// Percent computes completion as a percentage, clamped to [0, 100].
// An unknown total (0) yields 0.
func Percent(completed, total uint64) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
