// Package logic contains the pure gesture recognition engine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"time"
)

// ChannelID names a channel in configuration.
type ChannelID string

// EventID names an event definition in configuration.
type EventID string

// ProfileID names a behavior profile.
type ProfileID string

// DefaultHistoryCapacity is the number of edges retained per channel when no
// capacity is configured.
const DefaultHistoryCapacity = 8

// Configuration errors. All of them are returned before polling starts.
var (
	ErrUnknownChannel  = errors.New("unknown channel")
	ErrUnknownEvent    = errors.New("unknown event")
	ErrUnknownProfile  = errors.New("unknown profile")
	ErrNotBound        = errors.New("event not bound to channel")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrNoSources       = errors.New("channel has no sources")
	ErrEmptySequence   = errors.New("event sequence is empty")
	ErrSequenceTooLong = errors.New("event sequence longer than channel history")
	ErrEngineRunning   = errors.New("engine already polling")
)

// Input is a boolean, enable-gated signal source such as a button.
// Sample is only called while Enabled reports true. Both must be
// side-effect free and must not block.
type Input interface {
	Enabled() bool
	Sample() bool
}

// StateConstraint is one required state of an event pattern.
type StateConstraint struct {
	// Active is the required combined channel state.
	Active bool
	// MinHold is the minimum time the state must persist.
	MinHold time.Duration
	// MaxGap is the exclusive upper bound on how long the state may persist
	// before the next edge. Zero means unbounded.
	MaxGap time.Duration
}

// EventDefinition is an ordered temporal pattern, oldest state first.
type EventDefinition struct {
	ID       EventID
	Sequence []StateConstraint
}

// Event is produced when a binding matches.
type Event struct {
	EventID   EventID
	ChannelID ChannelID
	Timestamp time.Time
}

// Handler receives events recognised on a channel. It runs synchronously
// inside Poll and must not block.
type Handler func(Event)

// HistoryEntry records one edge of a channel's combined signal.
type HistoryEntry struct {
	Timestamp time.Time
	Active    bool
}

// ChannelState is a point-in-time view of a channel for status reporting.
type ChannelState struct {
	ID      ChannelID
	Enabled bool
	Active  bool
	// Since is the time of the newest edge; zero if no edge was seen yet.
	Since time.Time
}

// EventKey identifies a channel/event pair.
type EventKey struct {
	Channel ChannelID
	Event   EventID
}
