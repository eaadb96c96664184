package indicator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/speedwagon-io/levelmon/internal/level"
)

// Pins are sysfs GPIO numbers for the three outputs.
type Pins struct {
	OK     int
	Warn   int
	Danger int
}

// GPIO drives outputs through the legacy sysfs interface
// (/sys/class/gpio/gpioN/value).
type GPIO struct {
	root string
	pins Pins

	mu    sync.Mutex
	state map[int]bool
}

// NewGPIO exports the pins when needed, sets them as outputs and drives
// them low.
func NewGPIO(root string, pins Pins) (*GPIO, error) {
	g := &GPIO{
		root:  root,
		pins:  pins,
		state: make(map[int]bool, 3),
	}

	for _, pin := range []int{pins.OK, pins.Warn, pins.Danger} {
		if err := g.export(pin); err != nil {
			return nil, err
		}
	}

	if err := g.Drive(level.Signals{}); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GPIO) export(pin int) error {
	dir := filepath.Join(g.root, "gpio"+strconv.Itoa(pin))
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(filepath.Join(g.root, "export"), []byte(strconv.Itoa(pin)), 0o200); err != nil {
			return fmt.Errorf("failed to export gpio %d: %w", pin, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "direction"), []byte("out"), 0o644); err != nil {
		return fmt.Errorf("failed to set gpio %d direction: %w", pin, err)
	}
	return nil
}

func (g *GPIO) Drive(sig level.Signals) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for pin, high := range map[int]bool{
		g.pins.OK:     sig.OK,
		g.pins.Warn:   sig.Warn,
		g.pins.Danger: sig.Danger,
	} {
		if cur, ok := g.state[pin]; ok && cur == high {
			continue
		}
		if err := g.write(pin, high); err != nil {
			errs = append(errs, err)
			continue
		}
		g.state[pin] = high
	}
	return errors.Join(errs...)
}

func (g *GPIO) write(pin int, high bool) error {
	value := []byte("0")
	if high {
		value = []byte("1")
	}
	path := filepath.Join(g.root, "gpio"+strconv.Itoa(pin), "value")
	if err := os.WriteFile(path, value, 0o644); err != nil {
		return fmt.Errorf("failed to write gpio %d: %w", pin, err)
	}
	return nil
}

func (g *GPIO) Close() error {
	return g.Drive(level.Signals{})
}
