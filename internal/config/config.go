// Package config loads the static panel configuration: input lines,
// channels, gesture definitions, bindings, behavior profiles, device modes
// and the menu tree. Everything is read once at startup.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// GPIO backends.
const (
	BackendCdev   = "cdev"
	BackendPeriph = "periph"
	BackendFake   = "fake"
)

// Mode actions.
const (
	ActionMode         = "mode"
	ActionMenuOpen     = "menu_open"
	ActionMenuNext     = "menu_next"
	ActionMenuPrevious = "menu_previous"
	ActionMenuSelect   = "menu_select"
	ActionMenuExit     = "menu_exit"
)

var knownActions = map[string]bool{
	ActionMode:         true,
	ActionMenuOpen:     true,
	ActionMenuNext:     true,
	ActionMenuPrevious: true,
	ActionMenuSelect:   true,
	ActionMenuExit:     true,
}

// Config is the root of the configuration file.
type Config struct {
	Poll      time.Duration `yaml:"poll"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	History   int           `yaml:"history"`
	HTTP      string        `yaml:"http"`
	MQTT      MQTT          `yaml:"mqtt"`
	GPIO      GPIO          `yaml:"gpio"`
	Channels  []Channel     `yaml:"channels"`
	Events    []Event       `yaml:"events"`
	Bindings  []Binding     `yaml:"bindings"`
	Profiles  []Profile     `yaml:"profiles"`
	Modes     []Mode        `yaml:"modes"`
	Initial   string        `yaml:"initial_mode"`
	Menu      Menu          `yaml:"menu"`
}

// MQTT configures the publisher.
type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"topic_prefix"`
}

// GPIO selects the input backend and its lines.
type GPIO struct {
	Backend  string        `yaml:"backend"`
	Chip     string        `yaml:"chip"`
	Debounce time.Duration `yaml:"debounce"`
	Lines    []Line        `yaml:"lines"`
}

// Line is one button input.
type Line struct {
	Name      string `yaml:"name"`
	Offset    int    `yaml:"offset"`
	ActiveLow bool   `yaml:"active_low"`
	Bias      string `yaml:"bias"`
}

// Channel combines one or more lines.
type Channel struct {
	ID       string   `yaml:"id"`
	Sources  []string `yaml:"sources"`
	Disabled bool     `yaml:"disabled"`
}

// Event is a named gesture pattern.
type Event struct {
	ID       string  `yaml:"id"`
	Sequence []State `yaml:"sequence"`
}

// State is one step of a gesture pattern.
type State struct {
	Active  bool          `yaml:"active"`
	MinHold time.Duration `yaml:"min_hold"`
	MaxGap  time.Duration `yaml:"max_gap"`
}

// Binding attaches events to a channel.
type Binding struct {
	Channel string   `yaml:"channel"`
	Events  []string `yaml:"events"`
}

// Profile lists the enabled events per channel.
type Profile struct {
	ID     string              `yaml:"id"`
	Enable map[string][]string `yaml:"enable"`
}

// Mode is a device mode with its profile and gesture actions.
type Mode struct {
	Name    string   `yaml:"name"`
	Profile string   `yaml:"profile"`
	Actions []Action `yaml:"actions"`
}

// Action maps a recognised gesture to an application operation.
type Action struct {
	Channel string `yaml:"channel"`
	Event   string `yaml:"event"`
	Do      string `yaml:"do"`
	// Target is the mode switched to by the "mode" action.
	Target string `yaml:"target"`
}

// Menu is the menu tree and the modes it runs in.
type Menu struct {
	Name     string     `yaml:"name"`
	Mode     string     `yaml:"mode"`
	ExitMode string     `yaml:"exit_mode"`
	Items    []MenuItem `yaml:"items"`
}

// MenuItem is one node of the menu tree.
type MenuItem struct {
	Name    string     `yaml:"name"`
	Setting *Setting   `yaml:"setting"`
	Items   []MenuItem `yaml:"items"`
}

// Setting makes a leaf item an editable integer value.
type Setting struct {
	Key     string `yaml:"key"`
	Min     int    `yaml:"min"`
	Max     int    `yaml:"max"`
	Step    int    `yaml:"step"`
	Default int    `yaml:"default"`
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	return Parse(defaultYAML)
}

// Load reads a configuration file. An empty path loads the embedded default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Poll == 0 {
		c.Poll = 10 * time.Millisecond
	}
	if c.History == 0 {
		c.History = 8
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "panel-input"
	}
	if c.MQTT.Prefix == "" {
		c.MQTT.Prefix = "panel/input"
	}
	if c.GPIO.Backend == "" {
		c.GPIO.Backend = BackendCdev
	}
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = "gpiochip0"
	}
	if c.Menu.Name == "" {
		c.Menu.Name = "menu"
	}
	applySettingDefaults(c.Menu.Items)
}

func applySettingDefaults(items []MenuItem) {
	for i := range items {
		if s := items[i].Setting; s != nil && s.Step == 0 {
			s.Step = 1
		}
		applySettingDefaults(items[i].Items)
	}
}

// Validate checks references that the recognition engine does not see:
// lines, modes, actions and the menu tree.
func (c *Config) Validate() error {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.Poll <= 0 {
		fail("poll must be positive")
	}
	if c.Heartbeat < 0 || c.GPIO.Debounce < 0 {
		fail("durations must not be negative")
	}
	if c.History < 1 {
		fail("history must be at least 1")
	}
	switch c.GPIO.Backend {
	case BackendCdev, BackendPeriph, BackendFake:
	default:
		fail("unknown gpio backend %q", c.GPIO.Backend)
	}

	lines := make(map[string]bool)
	for _, l := range c.GPIO.Lines {
		if l.Name == "" {
			fail("gpio line at offset %d has no name", l.Offset)
		}
		if lines[l.Name] {
			fail("duplicate gpio line %q", l.Name)
		}
		lines[l.Name] = true
		switch l.Bias {
		case "", "pull-up", "pull-down":
		default:
			fail("line %q: unknown bias %q", l.Name, l.Bias)
		}
	}
	for _, ch := range c.Channels {
		for _, src := range ch.Sources {
			if !lines[src] {
				fail("channel %q: unknown source %q", ch.ID, src)
			}
		}
	}
	for _, ev := range c.Events {
		for i, s := range ev.Sequence {
			if s.MinHold < 0 || s.MaxGap < 0 {
				fail("event %q state %d: negative duration", ev.ID, i)
			}
			if s.MaxGap != 0 && s.MaxGap <= s.MinHold {
				fail("event %q state %d: max_gap must exceed min_hold", ev.ID, i)
			}
		}
	}

	profiles := make(map[string]bool)
	for _, p := range c.Profiles {
		profiles[p.ID] = true
	}
	modes := make(map[string]bool)
	for _, m := range c.Modes {
		if modes[m.Name] {
			fail("duplicate mode %q", m.Name)
		}
		modes[m.Name] = true
		if !profiles[m.Profile] {
			fail("mode %q: unknown profile %q", m.Name, m.Profile)
		}
	}
	for _, m := range c.Modes {
		for _, a := range m.Actions {
			if !knownActions[a.Do] {
				fail("mode %q: unknown action %q", m.Name, a.Do)
			}
			if a.Do == ActionMode && !modes[a.Target] {
				fail("mode %q: action targets unknown mode %q", m.Name, a.Target)
			}
		}
	}
	if len(c.Modes) > 0 && !modes[c.Initial] {
		fail("initial_mode %q is not a mode", c.Initial)
	}

	if len(c.Menu.Items) > 0 {
		if !modes[c.Menu.Mode] {
			fail("menu: unknown mode %q", c.Menu.Mode)
		}
		if !modes[c.Menu.ExitMode] {
			fail("menu: unknown exit_mode %q", c.Menu.ExitMode)
		}
		validateItems(c.Menu.Items, true, fail, make(map[string]bool))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// validateItems requires every setting to be the only item of a submenu.
// Selecting that submenu is then the only way onto the setting, and it
// always loads the stored value before any edit.
func validateItems(items []MenuItem, top bool, fail func(string, ...any), keys map[string]bool) {
	for _, it := range items {
		if it.Name == "" {
			fail("menu item without a name")
		}
		if s := it.Setting; s != nil {
			if len(it.Items) > 0 {
				fail("menu item %q: a setting must be a leaf", it.Name)
			}
			if top || len(items) != 1 {
				fail("menu item %q: a setting must be the only item of a submenu", it.Name)
			}
			if s.Key == "" {
				fail("menu item %q: setting without a key", it.Name)
			}
			if keys[s.Key] {
				fail("menu item %q: duplicate setting %q", it.Name, s.Key)
			}
			keys[s.Key] = true
			if s.Min > s.Max || s.Default < s.Min || s.Default > s.Max || s.Step < 1 {
				fail("menu item %q: setting range invalid", it.Name)
			}
		}
		validateItems(it.Items, false, fail, keys)
	}
}
