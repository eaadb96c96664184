package sonar

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// IIODriver reads a Linux industrial-I/O distance channel such as the
// srf04 driver's in_distance_raw. Scale converts raw units to centimeters.
type IIODriver struct {
	path  string
	scale float64
}

func NewIIODriver(path string, scale float64) *IIODriver {
	if scale == 0 {
		scale = 1
	}
	return &IIODriver{path: path, scale: scale}
}

func (d *IIODriver) Name() string {
	return "iio"
}

func (d *IIODriver) Ping(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// The kernel driver blocks the read until the echo returns or times out.
	data, err := os.ReadFile(d.path)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %v", ErrNoEcho, d.path, err)
	}

	raw, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse iio value %q: %w", strings.TrimSpace(string(data)), err)
	}

	return int(math.Round(raw * d.scale)), nil
}
