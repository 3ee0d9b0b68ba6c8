package logic

// channel ANDs its sources into one signal and logs its edges.
type channel struct {
	id       ChannelID
	enabled  bool
	sources  []Input
	history  *history
	bindings []*binding
	handler  Handler
}

// sample returns the combined active state. ok is false when the channel or
// any of its sources is disabled, in which case the history must not advance.
// Sources are not sampled while disabled.
func (c *channel) sample() (active, ok bool) {
	if !c.enabled {
		return false, false
	}
	for _, src := range c.sources {
		if !src.Enabled() {
			return false, false
		}
	}
	active = true
	for _, src := range c.sources {
		if !src.Sample() {
			active = false
		}
	}
	return active, true
}

// binding is the live association of an event definition with a channel.
type binding struct {
	event   *EventDefinition
	enabled bool
	// transitions counts edges on the channel since this binding last matched.
	transitions int
	fired       int
}
