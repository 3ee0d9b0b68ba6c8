package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphBank reads buttons through periph.io host drivers. Lines are
// addressed by BCM number ("GPIO<offset>"). Levels are read on Refresh.
type PeriphBank struct {
	ins       []pgpio.PinIn
	activeLow []bool
	pins      []*Pin
}

// NewPeriphBank initialises the periph host and configures every line as
// an input.
func NewPeriphBank(configs []LineConfig) (*PeriphBank, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	b := &PeriphBank{}
	for _, cfg := range configs {
		name := fmt.Sprintf("GPIO%d", cfg.Offset)
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%s: no pin %s: %w", cfg.Name, name, ErrUnknownPin)
		}
		if err := p.In(periphPull(cfg.Bias), pgpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s pin %s: %w", cfg.Name, name, err)
		}
		b.ins = append(b.ins, p)
		b.activeLow = append(b.activeLow, cfg.ActiveLow)
		b.pins = append(b.pins, NewPin(cfg.Name))
	}
	if err := b.Refresh(); err != nil {
		return nil, err
	}
	return b, nil
}

func periphPull(bias string) pgpio.Pull {
	switch bias {
	case "pull-up":
		return pgpio.PullUp
	case "pull-down":
		return pgpio.PullDown
	}
	return pgpio.PullNoChange
}

// Pins returns the bank's pins.
func (b *PeriphBank) Pins() []*Pin {
	return b.pins
}

// Refresh reads every line into its pin.
func (b *PeriphBank) Refresh() error {
	for i, in := range b.ins {
		high := in.Read() == pgpio.High
		b.pins[i].Set(high != b.activeLow[i])
	}
	return nil
}

// Close leaves the pins as inputs with pull-down.
func (b *PeriphBank) Close() error {
	var errs []error
	for i, in := range b.ins {
		if err := in.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", b.pins[i].name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
