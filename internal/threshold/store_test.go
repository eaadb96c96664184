package threshold

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/levelmon/internal/model"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore()
	assert.Equal(t, model.ThresholdSet{Low: 50, Mid: 75, High: 90}, s.All())

	v, err := s.Get(LevelMid)
	require.NoError(t, err)
	assert.Equal(t, 75.0, v)
}

func TestNewStoreWith(t *testing.T) {
	_, err := NewStoreWith(model.ThresholdSet{Low: 10, Mid: 20, High: 30})
	assert.NoError(t, err)

	_, err = NewStoreWith(model.ThresholdSet{Low: 30, Mid: 20, High: 40})
	assert.ErrorIs(t, err, ErrOrderingViolation)

	_, err = NewStoreWith(model.ThresholdSet{Low: 0, Mid: 20, High: 40})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestGetInvalidLevel(t *testing.T) {
	s := NewStore()
	for _, l := range []Level{0, 4, -1} {
		_, err := s.Get(l)
		assert.ErrorIs(t, err, ErrInvalidLevel)
	}
}

func TestSetValidation(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		value   float64
		wantErr error
		want    model.ThresholdSet
	}{
		{"mid inside", LevelMid, 80, nil, model.ThresholdSet{Low: 50, Mid: 80, High: 90}},
		{"low below mid", LevelLow, 10, nil, model.ThresholdSet{Low: 10, Mid: 75, High: 90}},
		{"high above mid", LevelHigh, 100, nil, model.ThresholdSet{Low: 50, Mid: 75, High: 100}},
		{"low minimum", LevelLow, 1, nil, model.ThresholdSet{Low: 1, Mid: 75, High: 90}},
		{"bad level checked first", 7, 500, ErrInvalidLevel, model.DefaultThresholds()},
		{"value too low", LevelLow, 0.5, ErrInvalidValue, model.DefaultThresholds()},
		{"value too high", LevelHigh, 100.01, ErrInvalidValue, model.DefaultThresholds()},
		{"value NaN", LevelMid, math.NaN(), ErrInvalidValue, model.DefaultThresholds()},
		{"low equal mid", LevelLow, 75, ErrOrderingViolation, model.DefaultThresholds()},
		{"mid equal low", LevelMid, 50, ErrOrderingViolation, model.DefaultThresholds()},
		{"mid above high", LevelMid, 95, ErrOrderingViolation, model.DefaultThresholds()},
		{"high equal mid", LevelHigh, 75, ErrOrderingViolation, model.DefaultThresholds()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			err := s.Set(tt.level, tt.value)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.want, s.All())
		})
	}
}

func TestOrderingErrorMessages(t *testing.T) {
	s := NewStore()

	err := s.Set(LevelLow, 80)
	var oe *OrderingError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, LevelLow, oe.Level)
	assert.Equal(t, "value of level 1 breakpoint must be lower than level 2", err.Error())

	err = s.Set(LevelMid, 20)
	assert.Equal(t, "value of level 2 breakpoint must be between level 1 and 3", err.Error())

	err = s.Set(LevelHigh, 60)
	assert.Equal(t, "value of level 3 breakpoint must be higher than level 2", err.Error())
}

func TestMidThenLowScenario(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set(LevelMid, 80))

	err := s.Set(LevelLow, 85)
	assert.ErrorIs(t, err, ErrOrderingViolation)
	assert.Equal(t, model.ThresholdSet{Low: 50, Mid: 80, High: 90}, s.All())
}

func TestOrderingHoldsAfterRandomWrites(t *testing.T) {
	s := NewStore()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 5000; i++ {
		before := s.All()
		level := Level(rng.Intn(5))
		value := rng.Float64()*110 - 5

		if err := s.Set(level, value); err != nil {
			assert.Equal(t, before, s.All(), "rejected write must not mutate")
		}
		require.True(t, s.All().Ordered(), "iteration %d: %+v", i, s.All())
	}
}

func TestConcurrentWritersKeepOrder(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 1000; i++ {
				_ = s.Set(Level(rng.Intn(3)+1), rng.Float64()*99+1)
				if set := s.All(); !set.Ordered() {
					t.Errorf("observed unordered set %+v", set)
					return
				}
			}
		}(int64(w))
	}

	wg.Wait()
	assert.True(t, s.All().Ordered())
}
