package logic

import (
	"fmt"
	"log"
	"time"
)

// Engine polls channels, logs their edges and matches event patterns
// against the logs. It is not safe for concurrent use: Poll, handlers and
// profile selection all run on the caller's goroutine.
type Engine struct {
	capacity int
	channels []*channel
	byID     map[ChannelID]*channel
	events   map[EventID]*EventDefinition
	profiles map[ProfileID]Profile
	active   ProfileID
	running  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistoryCapacity sets the number of edges each channel retains.
func WithHistoryCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.capacity = n
		}
	}
}

// NewEngine creates an engine with no channels.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		capacity: DefaultHistoryCapacity,
		byID:     make(map[ChannelID]*channel),
		events:   make(map[EventID]*EventDefinition),
		profiles: make(map[ProfileID]Profile),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HistoryCapacity returns the per-channel history capacity.
func (e *Engine) HistoryCapacity() int {
	return e.capacity
}

// AddChannel registers a channel combining the given sources.
// New channels are enabled.
func (e *Engine) AddChannel(id ChannelID, sources ...Input) error {
	if e.running {
		return ErrEngineRunning
	}
	if _, ok := e.byID[id]; ok {
		return fmt.Errorf("channel %q: %w", id, ErrDuplicateID)
	}
	if len(sources) == 0 {
		return fmt.Errorf("channel %q: %w", id, ErrNoSources)
	}
	for i, src := range sources {
		if src == nil {
			return fmt.Errorf("channel %q source %d: %w", id, i, ErrNoSources)
		}
	}
	c := &channel{
		id:      id,
		enabled: true,
		sources: append([]Input(nil), sources...),
		history: newHistory(e.capacity),
	}
	e.channels = append(e.channels, c)
	e.byID[id] = c
	return nil
}

// AddEvent registers an event definition. The sequence is copied.
func (e *Engine) AddEvent(def EventDefinition) error {
	if e.running {
		return ErrEngineRunning
	}
	if _, ok := e.events[def.ID]; ok {
		return fmt.Errorf("event %q: %w", def.ID, ErrDuplicateID)
	}
	if len(def.Sequence) == 0 {
		return fmt.Errorf("event %q: %w", def.ID, ErrEmptySequence)
	}
	if len(def.Sequence) > e.capacity {
		return fmt.Errorf("event %q has %d states, history holds %d: %w",
			def.ID, len(def.Sequence), e.capacity, ErrSequenceTooLong)
	}
	def.Sequence = append([]StateConstraint(nil), def.Sequence...)
	e.events[def.ID] = &def
	return nil
}

// Bind attaches an event to a channel. The binding starts enabled.
func (e *Engine) Bind(ch ChannelID, ev EventID) error {
	if e.running {
		return ErrEngineRunning
	}
	c, ok := e.byID[ch]
	if !ok {
		return fmt.Errorf("bind %q/%q: %w", ch, ev, ErrUnknownChannel)
	}
	def, ok := e.events[ev]
	if !ok {
		return fmt.Errorf("bind %q/%q: %w", ch, ev, ErrUnknownEvent)
	}
	for _, b := range c.bindings {
		if b.event.ID == ev {
			return fmt.Errorf("bind %q/%q: %w", ch, ev, ErrDuplicateID)
		}
	}
	if len(def.Sequence) > c.history.capacity() {
		return fmt.Errorf("bind %q/%q: %w", ch, ev, ErrSequenceTooLong)
	}
	c.bindings = append(c.bindings, &binding{event: def, enabled: true})
	return nil
}

// SetHandler registers the handler invoked for events on a channel.
func (e *Engine) SetHandler(ch ChannelID, h Handler) error {
	c, ok := e.byID[ch]
	if !ok {
		return fmt.Errorf("handler %q: %w", ch, ErrUnknownChannel)
	}
	c.handler = h
	return nil
}

// SetChannelEnabled enables or disables a channel. Disabling a channel
// freezes its history; it does not touch its sources.
func (e *Engine) SetChannelEnabled(ch ChannelID, enabled bool) error {
	c, ok := e.byID[ch]
	if !ok {
		return fmt.Errorf("channel %q: %w", ch, ErrUnknownChannel)
	}
	c.enabled = enabled
	return nil
}

// SetBindingEnabled enables or disables a single binding.
func (e *Engine) SetBindingEnabled(ch ChannelID, ev EventID, enabled bool) error {
	b, err := e.lookupBinding(ch, ev)
	if err != nil {
		return err
	}
	b.enabled = enabled
	return nil
}

// BindingEnabled reports whether the binding is enabled.
func (e *Engine) BindingEnabled(ch ChannelID, ev EventID) (bool, error) {
	b, err := e.lookupBinding(ch, ev)
	if err != nil {
		return false, err
	}
	return b.enabled, nil
}

func (e *Engine) lookupBinding(ch ChannelID, ev EventID) (*binding, error) {
	c, ok := e.byID[ch]
	if !ok {
		return nil, fmt.Errorf("binding %q/%q: %w", ch, ev, ErrUnknownChannel)
	}
	for _, b := range c.bindings {
		if b.event.ID == ev {
			return b, nil
		}
	}
	return nil, fmt.Errorf("binding %q/%q: %w", ch, ev, ErrNotBound)
}

// Poll samples every enabled channel, records edges and fires matching
// bindings. Handlers run before Poll returns. The fired events are also
// returned in firing order.
func (e *Engine) Poll(now time.Time) []Event {
	e.running = true

	var fired []Event
	for _, c := range e.channels {
		active, ok := c.sample()
		if !ok {
			continue
		}

		if last, seen := c.history.newest(); !seen || last.Active != active {
			c.history.push(HistoryEntry{Timestamp: now, Active: active})
			for _, b := range c.bindings {
				b.transitions++
			}
		}

		for _, b := range c.bindings {
			if !b.enabled || b.transitions < len(b.event.Sequence) {
				continue
			}
			if !matches(b.event.Sequence, c.history, now) {
				continue
			}
			ev := Event{EventID: b.event.ID, ChannelID: c.id, Timestamp: now}
			b.transitions = 0
			b.fired++
			fired = append(fired, ev)
			dispatch(c.handler, ev)
		}
	}
	return fired
}

// matches walks the sequence newest state first, pairing the last
// constraint with the newest edge.
func matches(seq []StateConstraint, h *history, now time.Time) bool {
	n := len(seq)
	if h.len() < n {
		return false
	}
	for k := n - 1; k >= 0; k-- {
		i := n - 1 - k
		entry := h.at(i)
		c := seq[k]
		if entry.Active != c.Active {
			return false
		}
		held := entry.Timestamp.Add(c.MinHold)
		if i == 0 {
			if held.After(now) {
				return false
			}
			continue
		}
		next := h.at(i - 1).Timestamp
		if held.After(next) {
			return false
		}
		if c.MaxGap != 0 && !entry.Timestamp.Add(c.MaxGap).After(next) {
			return false
		}
	}
	return true
}

// dispatch calls h, keeping a panicking handler from unwinding through Poll.
func dispatch(h Handler, ev Event) {
	if h == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler panic on %s/%s: %v", ev.ChannelID, ev.EventID, r)
		}
	}()
	h(ev)
}

// ChannelStates returns the current state of every channel in
// registration order.
func (e *Engine) ChannelStates() []ChannelState {
	out := make([]ChannelState, 0, len(e.channels))
	for _, c := range e.channels {
		s := ChannelState{ID: c.id, Enabled: c.enabled}
		if last, ok := c.history.newest(); ok {
			s.Active = last.Active
			s.Since = last.Timestamp
		}
		out = append(out, s)
	}
	return out
}

// History returns a copy of a channel's edge log, newest first.
func (e *Engine) History(ch ChannelID) ([]HistoryEntry, error) {
	c, ok := e.byID[ch]
	if !ok {
		return nil, fmt.Errorf("history %q: %w", ch, ErrUnknownChannel)
	}
	return c.history.entries(), nil
}

// Transitions returns the edge counter of a binding.
func (e *Engine) Transitions(ch ChannelID, ev EventID) (int, error) {
	b, err := e.lookupBinding(ch, ev)
	if err != nil {
		return 0, err
	}
	return b.transitions, nil
}

// Counts returns how often each binding has fired.
func (e *Engine) Counts() map[EventKey]int {
	out := make(map[EventKey]int)
	for _, c := range e.channels {
		for _, b := range c.bindings {
			out[EventKey{Channel: c.id, Event: b.event.ID}] = b.fired
		}
	}
	return out
}

// Channels returns the registered channel IDs in registration order.
func (e *Engine) Channels() []ChannelID {
	out := make([]ChannelID, len(e.channels))
	for i, c := range e.channels {
		out[i] = c.id
	}
	return out
}

// Bindings returns the events bound to a channel in binding order.
func (e *Engine) Bindings(ch ChannelID) []EventID {
	c, ok := e.byID[ch]
	if !ok {
		return nil
	}
	out := make([]EventID, len(c.bindings))
	for i, b := range c.bindings {
		out[i] = b.event.ID
	}
	return out
}
