//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// CdevBank is not available on non-Linux platforms.
type CdevBank struct{}

// NewCdevBank returns an error on non-Linux platforms.
func NewCdevBank(chipName string, configs []LineConfig, debounce time.Duration) (*CdevBank, error) {
	return nil, errors.New("gpio: character device not supported on this platform (requires Linux)")
}

// Pins returns nil on non-Linux platforms.
func (b *CdevBank) Pins() []*Pin {
	return nil
}

// Refresh is not implemented on non-Linux platforms.
func (b *CdevBank) Refresh() error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *CdevBank) Close() error {
	return nil
}
