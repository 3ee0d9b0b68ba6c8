package app

import (
	"fmt"
	"sort"

	"github.com/sweeney/panel-input/internal/config"
)

// Commit records a setting value written from the menu.
type Commit struct {
	Key   string
	Value int
}

// Settings holds the integer settings edited through the menu.
type Settings struct {
	defs   map[string]config.Setting
	values map[string]int
}

func newSettings() *Settings {
	return &Settings{
		defs:   make(map[string]config.Setting),
		values: make(map[string]int),
	}
}

func (s *Settings) define(def config.Setting) {
	s.defs[def.Key] = def
	s.values[def.Key] = def.Default
}

// Get returns a setting's value.
func (s *Settings) Get(key string) (int, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value clamped to the setting's range.
func (s *Settings) Set(key string, v int) error {
	def, ok := s.defs[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	s.values[key] = clamp(v, def.Min, def.Max)
	return nil
}

// Keys returns the setting keys in sorted order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot copies all values.
func (s *Settings) Snapshot() map[string]int {
	out := make(map[string]int, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
