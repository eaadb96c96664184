// Package level turns distances into fill percentages and status bands.
package level

import "github.com/speedwagon-io/levelmon/internal/model"

// Percentage returns how full the container is relative to the baseline.
// The result is not clamped: a distance beyond the baseline goes negative.
func Percentage(baseline, distance model.Distance) (float64, bool) {
	if !baseline.Valid || !distance.Valid || baseline.CM == 0 {
		return 0, false
	}
	return float64(baseline.CM-distance.CM) / float64(baseline.CM) * 100, true
}

// Band maps a percentage onto the highest breakpoint it reaches.
func Band(pct float64, t model.ThresholdSet) model.Status {
	switch {
	case pct >= t.High:
		return model.StatusDangerous
	case pct >= t.Mid:
		return model.StatusWarned
	case pct >= t.Low:
		return model.StatusSafe
	default:
		return model.StatusLow
	}
}

// Classify is pure. Inactive monitoring masks everything as unchecked;
// missing data while active reports 0% and StatusLow.
func Classify(baseline, distance model.Distance, t model.ThresholdSet, active bool) (float64, model.Status) {
	if !active {
		return 0, model.StatusUnchecked
	}

	pct, ok := Percentage(baseline, distance)
	if !ok {
		return 0, model.StatusLow
	}
	return pct, Band(pct, t)
}

// Signals is the state of the three indicator outputs.
type Signals struct {
	OK     bool
	Warn   bool
	Danger bool
}

// Indicators derives output levels. The signals are cumulative, so a
// dangerous reading drives all three high.
func Indicators(pct float64, t model.ThresholdSet, active bool) Signals {
	if !active {
		return Signals{}
	}
	return Signals{
		OK:     pct >= t.Low,
		Warn:   pct >= t.Mid,
		Danger: pct >= t.High,
	}
}

// InRange reports whether pct is a plausible fill level.
func InRange(pct float64) bool {
	return pct >= 0 && pct <= 100
}
