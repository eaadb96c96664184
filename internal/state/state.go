// Package state owns the station's shared mutable state. One State is built
// at startup and handed to the periodic cycle and to the request handlers.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/speedwagon-io/levelmon/internal/calibration"
	"github.com/speedwagon-io/levelmon/internal/level"
	"github.com/speedwagon-io/levelmon/internal/model"
	"github.com/speedwagon-io/levelmon/internal/threshold"
)

// Monitoring gates the live sampling path.
type Monitoring struct {
	active atomic.Bool
}

func (m *Monitoring) SetActive(active bool) {
	m.active.Store(active)
}

func (m *Monitoring) Active() bool {
	return m.active.Load()
}

// Live holds the most recent surface distance. Only the cycle writes it.
type Live struct {
	mu       sync.RWMutex
	distance model.Distance
}

func (l *Live) Set(d model.Distance) {
	l.mu.Lock()
	l.distance = d
	l.mu.Unlock()
}

func (l *Live) Distance() model.Distance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.distance
}

type State struct {
	Calibration *calibration.State
	Thresholds  *threshold.Store
	Monitoring  *Monitoring
	Live        *Live
}

func New(thresholds *threshold.Store) *State {
	if thresholds == nil {
		thresholds = threshold.NewStore()
	}
	return &State{
		Calibration: calibration.New(),
		Thresholds:  thresholds,
		Monitoring:  &Monitoring{},
		Live:        &Live{},
	}
}

// Snapshot reads each piece once and classifies the result. Pieces are read
// independently, so a handler running mid-cycle may see the previous
// distance with a fresh baseline; each piece is itself consistent.
func (s *State) Snapshot() model.Snapshot {
	snap := model.Snapshot{
		Baseline:    s.Calibration.Baseline(),
		Calibrating: s.Calibration.Pending(),
		Thresholds:  s.Thresholds.All(),
		Active:      s.Monitoring.Active(),
		Distance:    s.Live.Distance(),
	}
	snap.Percentage, snap.Status = level.Classify(snap.Baseline, snap.Distance, snap.Thresholds, snap.Active)
	return snap
}
