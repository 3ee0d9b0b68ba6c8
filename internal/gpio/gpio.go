// Package gpio provides button inputs with hardware abstraction.
// The cdev implementation uses the Linux GPIO character device, the periph
// implementation uses periph.io host drivers, and the fake implementation
// allows testing without hardware.
package gpio

import (
	"errors"
	"sync/atomic"
)

// ErrUnknownPin is returned when a bank has no pin of the requested name.
var ErrUnknownPin = errors.New("gpio: unknown pin")

// Bank owns the hardware behind a set of pins.
type Bank interface {
	// Pins returns the bank's pins in configuration order.
	Pins() []*Pin

	// Refresh brings every pin's level up to date. It is called once per
	// poll tick before the levels are sampled.
	Refresh() error

	// Close releases GPIO resources.
	Close() error
}

// LineConfig describes one input line.
type LineConfig struct {
	Name      string
	Offset    int
	ActiveLow bool
	// Bias is "pull-up", "pull-down" or "" to leave it unchanged.
	Bias string
}

// Pin is a logical button level. The level is a single atomic word so an
// edge watcher goroutine may update it while the poll loop samples it.
type Pin struct {
	name     string
	level    atomic.Bool
	disabled atomic.Bool
}

// NewPin creates an enabled, inactive pin.
func NewPin(name string) *Pin {
	return &Pin{name: name}
}

// Name returns the configured name.
func (p *Pin) Name() string {
	return p.name
}

// Enabled reports whether the pin may be sampled.
func (p *Pin) Enabled() bool {
	return !p.disabled.Load()
}

// SetEnabled enables or disables the pin. A disabled pin freezes the
// channels it feeds.
func (p *Pin) SetEnabled(enabled bool) {
	p.disabled.Store(!enabled)
}

// Sample returns the latest logical level (true = pressed).
func (p *Pin) Sample() bool {
	return p.level.Load()
}

// Set stores a new logical level.
func (p *Pin) Set(active bool) {
	p.level.Store(active)
}

// Lookup finds a pin by name.
func Lookup(b Bank, name string) (*Pin, error) {
	for _, p := range b.Pins() {
		if p.name == name {
			return p, nil
		}
	}
	return nil, ErrUnknownPin
}
