package model

const (
	DefaultLowBreakpoint  = 50.0
	DefaultMidBreakpoint  = 75.0
	DefaultHighBreakpoint = 90.0

	MinBreakpoint = 1.0
	MaxBreakpoint = 100.0
)

// ThresholdSet holds the three ordered breakpoints, in percent.
type ThresholdSet struct {
	Low  float64 `json:"level1Breakpoint"`
	Mid  float64 `json:"level2Breakpoint"`
	High float64 `json:"level3Breakpoint"`
}

func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		Low:  DefaultLowBreakpoint,
		Mid:  DefaultMidBreakpoint,
		High: DefaultHighBreakpoint,
	}
}

// Ordered reports whether Low < Mid < High.
func (t ThresholdSet) Ordered() bool {
	return t.Low < t.Mid && t.Mid < t.High
}
