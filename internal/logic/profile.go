package logic

import "fmt"

// Profile selects which bindings are enabled. Bindings not listed are
// disabled while the profile is active.
type Profile struct {
	ID      ProfileID
	Enabled map[ChannelID][]EventID
}

// AddProfile registers a profile. Every listed pair must already be bound.
func (e *Engine) AddProfile(p Profile) error {
	if e.running {
		return ErrEngineRunning
	}
	if _, ok := e.profiles[p.ID]; ok {
		return fmt.Errorf("profile %q: %w", p.ID, ErrDuplicateID)
	}
	table := make(map[ChannelID][]EventID, len(p.Enabled))
	for ch, evs := range p.Enabled {
		for _, ev := range evs {
			if _, err := e.lookupBinding(ch, ev); err != nil {
				return fmt.Errorf("profile %q: %w", p.ID, err)
			}
		}
		table[ch] = append([]EventID(nil), evs...)
	}
	p.Enabled = table
	e.profiles[p.ID] = p
	return nil
}

// SelectProfile re-derives the enabled flag of every binding from the
// profile. The whole table is computed before any flag changes, so an
// unknown profile leaves the current flags untouched.
func (e *Engine) SelectProfile(id ProfileID) error {
	p, ok := e.profiles[id]
	if !ok {
		return fmt.Errorf("select %q: %w", id, ErrUnknownProfile)
	}

	type update struct {
		b       *binding
		enabled bool
	}
	var updates []update
	for _, c := range e.channels {
		on := make(map[EventID]bool)
		for _, ev := range p.Enabled[c.id] {
			on[ev] = true
		}
		for _, b := range c.bindings {
			updates = append(updates, update{b: b, enabled: on[b.event.ID]})
		}
	}
	for _, u := range updates {
		u.b.enabled = u.enabled
	}
	e.active = id
	return nil
}

// ActiveProfile returns the most recently selected profile, or "" if none.
func (e *Engine) ActiveProfile() ProfileID {
	return e.active
}

// HasProfile reports whether a profile is registered.
func (e *Engine) HasProfile(id ProfileID) bool {
	_, ok := e.profiles[id]
	return ok
}
