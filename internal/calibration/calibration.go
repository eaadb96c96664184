// Package calibration tracks the container baseline depth and the one-shot
// request to re-measure it.
package calibration

import (
	"sync"
	"sync/atomic"

	"github.com/speedwagon-io/levelmon/internal/model"
)

type Phase int

const (
	Uncalibrated Phase = iota
	Calibrating
	Calibrated
)

func (p Phase) String() string {
	switch p {
	case Uncalibrated:
		return "uncalibrated"
	case Calibrating:
		return "calibrating"
	case Calibrated:
		return "calibrated"
	default:
		return "unknown"
	}
}

// State is written by request handlers (Request only) and by the periodic
// cycle (Claim and Complete).
type State struct {
	requested atomic.Bool

	mu       sync.RWMutex
	baseline model.Distance
}

func New() *State {
	return &State{}
}

// Request asks the next cycle to re-measure the baseline. It reports false
// when a request was already pending.
func (s *State) Request() bool {
	return s.requested.CompareAndSwap(false, true)
}

func (s *State) Pending() bool {
	return s.requested.Load()
}

// Claim clears the request flag and reports whether it was set. The caller
// that gets true owns exactly one calibration sample.
func (s *State) Claim() bool {
	return s.requested.Swap(false)
}

// Complete records the outcome of a claimed calibration sample. An unknown
// sample leaves the previous baseline in place.
func (s *State) Complete(sample model.Distance) bool {
	if !sample.Valid || sample.CM <= 0 {
		return false
	}

	s.mu.Lock()
	s.baseline = sample
	s.mu.Unlock()
	return true
}

func (s *State) Baseline() model.Distance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseline
}

func (s *State) Phase() Phase {
	if s.Pending() {
		return Calibrating
	}
	if s.Baseline().Valid {
		return Calibrated
	}
	return Uncalibrated
}
