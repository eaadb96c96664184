package model

// Snapshot is a point-in-time view of the station, as reported by the
// request surface and published by the uplink.
type Snapshot struct {
	Baseline    Distance
	Calibrating bool
	Thresholds  ThresholdSet
	Active      bool
	Distance    Distance
	Percentage  float64
	Status      Status
}

// Reading is the wire form of a Snapshot.
type Reading struct {
	DepthStatus string  `json:"depthStatus"`
	Depth       int     `json:"depth"`
	Calibrating bool    `json:"calibrating"`
	Low         float64 `json:"level1Breakpoint"`
	Mid         float64 `json:"level2Breakpoint"`
	High        float64 `json:"level3Breakpoint"`
	SonarStatus string  `json:"sonarStatus"`
	WaterStatus string  `json:"waterStatus"`
	WaterLevel  float64 `json:"waterLevel"`
	Distance    *int    `json:"distance,omitempty"`
}

const (
	DepthChecked   = "checked"
	DepthUnchecked = "unchecked"

	SonarActive   = "active"
	SonarInactive = "inactive"
)

func (s Snapshot) DepthStatus() string {
	if s.Baseline.Valid && s.Baseline.CM != 0 {
		return DepthChecked
	}
	return DepthUnchecked
}

func (s Snapshot) SonarStatus() string {
	if s.Active {
		return SonarActive
	}
	return SonarInactive
}

func (s Snapshot) Reading() Reading {
	r := Reading{
		DepthStatus: s.DepthStatus(),
		Calibrating: s.Calibrating,
		Low:         s.Thresholds.Low,
		Mid:         s.Thresholds.Mid,
		High:        s.Thresholds.High,
		SonarStatus: s.SonarStatus(),
		WaterStatus: s.Status.String(),
		WaterLevel:  s.Percentage,
	}
	if r.DepthStatus == DepthChecked {
		r.Depth = s.Baseline.CM
	}
	if s.Active && s.Distance.Valid {
		cm := s.Distance.CM
		r.Distance = &cm
	}
	return r
}
