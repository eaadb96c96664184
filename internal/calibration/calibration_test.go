package calibration

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/speedwagon-io/levelmon/internal/model"
)

func TestInitialState(t *testing.T) {
	s := New()
	assert.Equal(t, Uncalibrated, s.Phase())
	assert.False(t, s.Baseline().Valid)
	assert.False(t, s.Pending())
}

func TestRequestIsIdempotent(t *testing.T) {
	s := New()
	assert.True(t, s.Request())
	assert.False(t, s.Request())
	assert.False(t, s.Request())
	assert.Equal(t, Calibrating, s.Phase())
}

func TestClaimIsOneShot(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Request()
	}

	assert.True(t, s.Claim())
	assert.False(t, s.Claim())
	assert.False(t, s.Pending())
}

func TestClaimWithoutRequest(t *testing.T) {
	s := New()
	assert.False(t, s.Claim())
}

func TestCompleteSetsBaseline(t *testing.T) {
	s := New()
	s.Request()
	s.Claim()

	assert.True(t, s.Complete(model.Known(120)))
	assert.Equal(t, model.Known(120), s.Baseline())
	assert.Equal(t, Calibrated, s.Phase())
}

func TestFailedSampleKeepsBaseline(t *testing.T) {
	s := New()
	s.Complete(model.Known(120))

	s.Request()
	assert.True(t, s.Claim())
	assert.False(t, s.Complete(model.Unknown()))
	assert.False(t, s.Complete(model.Known(0)))

	assert.Equal(t, model.Known(120), s.Baseline())
	assert.Equal(t, Calibrated, s.Phase())
}

func TestRecalibrationOverwrites(t *testing.T) {
	s := New()
	s.Complete(model.Known(120))
	s.Request()
	assert.Equal(t, Calibrating, s.Phase())
	s.Claim()
	s.Complete(model.Known(95))
	assert.Equal(t, model.Known(95), s.Baseline())
}

func TestConcurrentRequestsClaimedOnce(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Request()
		}()
	}
	wg.Wait()

	claims := 0
	for i := 0; i < 10; i++ {
		if s.Claim() {
			claims++
		}
	}
	assert.Equal(t, 1, claims)
}
