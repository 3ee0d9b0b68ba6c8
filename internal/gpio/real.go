//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// CdevBank reads buttons through the Linux GPIO character device. Levels
// are pushed into the pins by the kernel's edge events, so Refresh has
// nothing to do.
type CdevBank struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
	pins  []*Pin
}

// NewCdevBank requests every line as an edge-watched input. A non-zero
// debounce period is applied by the kernel.
func NewCdevBank(chipName string, configs []LineConfig, debounce time.Duration) (*CdevBank, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("panel-input"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &CdevBank{chip: chip}
	for _, cfg := range configs {
		pin := NewPin(cfg.Name)
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				pin.Set(evt.Type == gpiocdev.LineEventRisingEdge)
			}),
		}
		if cfg.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		switch cfg.Bias {
		case "pull-up":
			opts = append(opts, gpiocdev.WithPullUp)
		case "pull-down":
			opts = append(opts, gpiocdev.WithPullDown)
		}
		if debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(debounce))
		}

		line, err := chip.RequestLine(cfg.Offset, opts...)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", cfg.Name, cfg.Offset, err)
		}
		b.lines = append(b.lines, line)

		v, err := line.Value()
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("read %s pin %d: %w", cfg.Name, cfg.Offset, err)
		}
		pin.Set(v == 1)
		b.pins = append(b.pins, pin)
	}
	return b, nil
}

// Pins returns the bank's pins.
func (b *CdevBank) Pins() []*Pin {
	return b.pins
}

// Refresh is a no-op; edge events keep the pins current.
func (b *CdevBank) Refresh() error {
	return nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing to ensure clean state for system shutdown/reboot.
func (b *CdevBank) Close() error {
	var errs []error

	for i, line := range b.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", i, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", i, err))
		}
	}
	b.lines = nil
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
