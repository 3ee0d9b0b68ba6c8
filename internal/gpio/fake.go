package gpio

import "errors"

// Sample is one scripted set of pin levels, keyed by pin name.
// Pins missing from a sample keep their previous level.
type Sample map[string]bool

// FakeBank is a test double that returns scripted pin levels.
type FakeBank struct {
	// Samples contains scripted levels. Each call to Refresh() applies the
	// next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	pins []*Pin

	// Closed tracks if Close was called
	Closed bool

	// RefreshError, if set, will be returned by Refresh()
	RefreshError error
}

// NewFakeBank creates a FakeBank with one pin per name.
func NewFakeBank(names []string, samples []Sample) *FakeBank {
	f := &FakeBank{Samples: samples}
	for _, n := range names {
		f.pins = append(f.pins, NewPin(n))
	}
	return f
}

// Pins returns the fake pins.
func (f *FakeBank) Pins() []*Pin {
	return f.pins
}

// Refresh applies the next scripted sample.
// If samples are exhausted, the last sample is applied repeatedly.
func (f *FakeBank) Refresh() error {
	if f.RefreshError != nil {
		return f.RefreshError
	}

	if len(f.Samples) == 0 {
		return errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	for _, p := range f.pins {
		if v, ok := sample[p.name]; ok {
			p.Set(v)
		}
	}
	return nil
}

// Close marks the bank as closed.
func (f *FakeBank) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the script to the beginning.
func (f *FakeBank) Reset() {
	f.index = 0
	f.Closed = false
}
