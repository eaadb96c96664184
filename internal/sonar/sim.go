package sonar

import (
	"context"
	"math"
	"math/rand"
	"sync"
)

const maxSimFill = 0.95

// SimDriver models a tank of fixed depth that slowly fills and drains. It
// starts empty, so a first calibration reads the full depth.
type SimDriver struct {
	mu       sync.Mutex
	rng      *rand.Rand
	depthCM  int
	fill     float64
	step     float64
	dropRate float64
}

func NewSimDriver(depthCM int, seed int64) *SimDriver {
	if depthCM <= 0 {
		depthCM = 120
	}
	return &SimDriver{
		rng:      rand.New(rand.NewSource(seed)),
		depthCM:  depthCM,
		step:     0.01,
		dropRate: 0.02,
	}
}

func (d *SimDriver) Name() string {
	return "sim"
}

func (d *SimDriver) Ping(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rng.Float64() < d.dropRate {
		return 0, ErrNoEcho
	}

	cm := int(math.Round(float64(d.depthCM) * (1 - d.fill)))

	d.fill += d.step
	switch {
	case d.fill >= maxSimFill:
		d.fill, d.step = maxSimFill, -d.step
	case d.fill <= 0:
		d.fill, d.step = 0, -d.step
	}

	return cm, nil
}
