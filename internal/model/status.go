package model

// Status is the classified water state. StatusLow is the band below the
// low breakpoint and is unrelated to ThresholdSet.Low.
type Status int

const (
	StatusUnchecked Status = iota
	StatusLow
	StatusSafe
	StatusWarned
	StatusDangerous
)

func (s Status) String() string {
	switch s {
	case StatusUnchecked:
		return "unchecked"
	case StatusLow:
		return "low"
	case StatusSafe:
		return "safe"
	case StatusWarned:
		return "warned"
	case StatusDangerous:
		return "dangerous"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
