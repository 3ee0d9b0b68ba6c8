package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}

	if cfg.Poll != 10*time.Millisecond {
		t.Errorf("poll: got %v, want 10ms", cfg.Poll)
	}
	if cfg.Heartbeat != 15*time.Minute {
		t.Errorf("heartbeat: got %v, want 15m", cfg.Heartbeat)
	}
	if cfg.GPIO.Backend != BackendCdev {
		t.Errorf("backend: got %q", cfg.GPIO.Backend)
	}
	if len(cfg.GPIO.Lines) != 3 {
		t.Errorf("lines: got %d, want 3", len(cfg.GPIO.Lines))
	}
	if cfg.Initial != "standby" {
		t.Errorf("initial mode: got %q", cfg.Initial)
	}

	var tap *Event
	for i := range cfg.Events {
		if cfg.Events[i].ID == "tap" {
			tap = &cfg.Events[i]
		}
	}
	if tap == nil {
		t.Fatal("default config has no tap event")
	}
	if len(tap.Sequence) != 2 || tap.Sequence[0].MaxGap != 400*time.Millisecond || !tap.Sequence[0].Active {
		t.Errorf("unexpected tap sequence %+v", tap.Sequence)
	}

	if cfg.Menu.Mode != "menu" || cfg.Menu.ExitMode != "active" {
		t.Errorf("menu modes: %q/%q", cfg.Menu.Mode, cfg.Menu.ExitMode)
	}
	timeout := cfg.Menu.Items[0].Items[1].Items[0].Setting
	if timeout == nil || timeout.Step != 5 {
		t.Errorf("timeout setting: %+v", timeout)
	}
	brightness := cfg.Menu.Items[0].Items[0].Items[0].Setting
	if brightness == nil || brightness.Step != 1 {
		t.Errorf("brightness step should default to 1: %+v", brightness)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MQTT.Prefix != "panel/input" {
		t.Errorf("prefix: got %q", cfg.MQTT.Prefix)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panel.yaml")
	doc := `
gpio:
  backend: fake
  lines:
    - {name: a}
channels:
  - {id: a, sources: [a]}
events:
  - id: press
    sequence:
      - {active: true}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Poll != 10*time.Millisecond || cfg.History != 8 {
		t.Errorf("defaults not applied: poll=%v history=%d", cfg.Poll, cfg.History)
	}
	if cfg.GPIO.Chip != "gpiochip0" || cfg.MQTT.ClientID != "panel-input" {
		t.Errorf("defaults not applied: %+v %+v", cfg.GPIO, cfg.MQTT)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("pol: 10ms\n")); err == nil {
		t.Error("expected unknown key to be rejected")
	}
}

func TestValidationErrors(t *testing.T) {
	base := `
gpio:
  backend: fake
  lines:
    - {name: a}
channels:
  - {id: a, sources: [a]}
profiles:
  - {id: p}
modes:
  - {name: m, profile: p}
initial_mode: m
`
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown backend", "gpio: {backend: spi}\n", "unknown gpio backend"},
		{"unknown key", base + "channels_extra: x\n", "field channels_extra not found"},
		{"channel source", strings.Replace(base, "sources: [a]", "sources: [b]", 1), `unknown source "b"`},
		{"bad bias", strings.Replace(base, "{name: a}", "{name: a, bias: sideways}", 1), "unknown bias"},
		{"gap not above hold", base + "events:\n  - {id: e, sequence: [{active: true, min_hold: 50ms, max_gap: 50ms}]}\n", "max_gap must exceed min_hold"},
		{"mode profile", strings.Replace(base, "profile: p}", "profile: q}", 1), `unknown profile "q"`},
		{"initial mode", strings.Replace(base, "initial_mode: m", "initial_mode: z", 1), "initial_mode"},
		{"unknown action", strings.Replace(base, "{name: m, profile: p}", "{name: m, profile: p, actions: [{do: dance}]}", 1), `unknown action "dance"`},
		{"mode target", strings.Replace(base, "{name: m, profile: p}", "{name: m, profile: p, actions: [{do: mode, target: z}]}", 1), `unknown mode "z"`},
		{"menu mode", base + "menu: {mode: z, exit_mode: m, items: [{name: x}]}\n", "menu: unknown mode"},
		{"setting with children", base + "menu: {mode: m, exit_mode: m, items: [{name: x, setting: {key: k, max: 1}, items: [{name: y}]}]}\n", "must be a leaf"},
		{"setting range", base + "menu: {mode: m, exit_mode: m, items: [{name: s, items: [{name: x, setting: {key: k, min: 5, max: 1}}]}]}\n", "range invalid"},
		{"duplicate setting", base + "menu: {mode: m, exit_mode: m, items: [{name: s, items: [{name: x, setting: {key: k, max: 1}}]}, {name: t, items: [{name: y, setting: {key: k, max: 1}}]}]}\n", "duplicate setting"},
		{"setting with sibling", base + "menu: {mode: m, exit_mode: m, items: [{name: Sound, items: [{name: Mute}, {name: volume, setting: {key: volume, max: 10, default: 4}}]}]}\n", `"volume": a setting must be the only item`},
		{"top-level setting", base + "menu: {mode: m, exit_mode: m, items: [{name: volume, setting: {key: volume, max: 10, default: 4}}]}\n", `"volume": a setting must be the only item`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestValidationErrorIsInvalid(t *testing.T) {
	_, err := Parse([]byte("history: -1\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want ErrInvalid", err)
	}
}
