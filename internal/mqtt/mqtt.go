// Package mqtt publishes panel events to a broker and receives remote
// mode and profile commands, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sweeney/panel-input/internal/logic"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "panel/input"

// ErrEmptyCommand is returned for a command naming neither a mode nor a profile.
var ErrEmptyCommand = errors.New("command names no mode or profile")

// Topics holds the topic names derived from a prefix.
type Topics struct {
	Events   string
	Settings string
	System   string
	Command  string
}

// NewTopics derives topic names from prefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Events:   prefix + "/events",
		Settings: prefix + "/settings",
		System:   prefix + "/system",
		Command:  prefix + "/command",
	}
}

// Setting returns the retained topic for one setting key.
func (t Topics) Setting(key string) string {
	return t.Settings + "/" + key
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a recognised input event.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSetting sends a committed setting value, retained.
	PublishSetting(s Setting) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandSource delivers remote commands.
type CommandSource interface {
	Commands() <-chan Command
}

// Setting is a setting value written from the menu.
type Setting struct {
	Timestamp time.Time
	Key       string
	Value     int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Command is an inbound request to switch mode or profile.
type Command struct {
	Mode    string `json:"mode,omitempty"`
	Profile string `json:"profile,omitempty"`
}

// ParseCommand decodes a command message.
func ParseCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, err
	}
	if c.Mode == "" && c.Profile == "" {
		return Command{}, ErrEmptyCommand
	}
	return c, nil
}

// Payload represents the MQTT message payload for an input event.
type Payload struct {
	Input InputPayload `json:"input"`
}

// InputPayload contains the input event details.
type InputPayload struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Event     string `json:"event"`
}

// FormatPayload creates the JSON payload for an input event.
func FormatPayload(event logic.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Input: InputPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Channel:   string(event.ChannelID),
			Event:     string(event.EventID),
		},
	})
}

// SettingPayload is the MQTT message payload for a setting commit.
type SettingPayload struct {
	Setting SettingInner `json:"setting"`
}

// SettingInner contains the setting details.
type SettingInner struct {
	Timestamp string `json:"timestamp"`
	Key       string `json:"key"`
	Value     int    `json:"value"`
}

// FormatSettingPayload creates the JSON payload for a setting commit.
func FormatSettingPayload(s Setting) ([]byte, error) {
	return json.Marshal(SettingPayload{
		Setting: SettingInner{
			Timestamp: s.Timestamp.UTC().Format(time.RFC3339),
			Key:       s.Key,
			Value:     s.Value,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
