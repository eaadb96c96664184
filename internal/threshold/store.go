// Package threshold holds the three ordered water-level breakpoints.
package threshold

import (
	"errors"
	"fmt"
	"sync"

	"github.com/speedwagon-io/levelmon/internal/model"
)

// Level selects a breakpoint.
type Level int

const (
	LevelLow  Level = 1
	LevelMid  Level = 2
	LevelHigh Level = 3
)

var (
	ErrInvalidLevel      = errors.New("level must be integer from 1 to 3")
	ErrInvalidValue      = errors.New("value must be a valid float from 1 to 100")
	ErrOrderingViolation = errors.New("breakpoint ordering violated")
)

// OrderingError reports which neighbour a rejected breakpoint collided with.
type OrderingError struct {
	Level Level
	Value float64
	Set   model.ThresholdSet
}

func (e *OrderingError) Error() string {
	switch e.Level {
	case LevelLow:
		return "value of level 1 breakpoint must be lower than level 2"
	case LevelMid:
		return "value of level 2 breakpoint must be between level 1 and 3"
	default:
		return "value of level 3 breakpoint must be higher than level 2"
	}
}

func (e *OrderingError) Unwrap() error {
	return ErrOrderingViolation
}

func (l Level) Valid() bool {
	return l >= LevelLow && l <= LevelHigh
}

// Store guards a ThresholdSet. Every write is validated against the
// would-be result, so readers only ever see an ordered set.
type Store struct {
	mu  sync.RWMutex
	set model.ThresholdSet
}

func NewStore() *Store {
	return &Store{set: model.DefaultThresholds()}
}

// NewStoreWith seeds the store with initial breakpoints.
func NewStoreWith(set model.ThresholdSet) (*Store, error) {
	for _, v := range []float64{set.Low, set.Mid, set.High} {
		if err := checkRange(v); err != nil {
			return nil, fmt.Errorf("initial breakpoint %v: %w", v, err)
		}
	}
	if !set.Ordered() {
		return nil, fmt.Errorf("initial breakpoints %v/%v/%v: %w", set.Low, set.Mid, set.High, ErrOrderingViolation)
	}
	return &Store{set: set}, nil
}

func (s *Store) All() model.ThresholdSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

func (s *Store) Get(level Level) (float64, error) {
	if !level.Valid() {
		return 0, ErrInvalidLevel
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch level {
	case LevelLow:
		return s.set.Low, nil
	case LevelMid:
		return s.set.Mid, nil
	default:
		return s.set.High, nil
	}
}

// Set replaces a single breakpoint. Checks run in order: level, range,
// ordering against the current neighbours. A rejected call changes nothing.
func (s *Store) Set(level Level, value float64) error {
	if !level.Valid() {
		return ErrInvalidLevel
	}
	if err := checkRange(value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.set
	switch level {
	case LevelLow:
		next.Low = value
	case LevelMid:
		next.Mid = value
	case LevelHigh:
		next.High = value
	}

	if !next.Ordered() {
		return &OrderingError{Level: level, Value: value, Set: s.set}
	}

	s.set = next
	return nil
}

// checkRange also rejects NaN, which fails both comparisons.
func checkRange(v float64) error {
	if !(v >= model.MinBreakpoint && v <= model.MaxBreakpoint) {
		return ErrInvalidValue
	}
	return nil
}
