package app

import (
	"fmt"
	"log"
	"strings"
)

// Frame is what the panel display shows.
type Frame struct {
	// Path holds the menu item names down to the shown item. Empty when the
	// menu is closed.
	Path       []string
	Transition string
	Editing    bool
	Value      int
}

func (f Frame) String() string {
	if len(f.Path) == 0 {
		return "(menu closed)"
	}
	s := strings.Join(f.Path, " > ")
	if f.Editing {
		s += fmt.Sprintf(" [%d]", f.Value)
	}
	return s
}

// Screen renders frames. It is called synchronously from menu hooks.
type Screen interface {
	Show(Frame)
}

// LogScreen writes frames to the standard logger.
type LogScreen struct{}

// Show logs the frame.
func (LogScreen) Show(f Frame) {
	if f.Transition != "" {
		log.Printf("display: %s (%s)", f, f.Transition)
		return
	}
	log.Printf("display: %s", f)
}

// ScreenFunc adapts a function to Screen.
type ScreenFunc func(Frame)

// Show calls fn(f).
func (fn ScreenFunc) Show(f Frame) {
	fn(f)
}

// MultiScreen shows every frame on each of its screens in order.
type MultiScreen []Screen

// Show forwards f.
func (m MultiScreen) Show(f Frame) {
	for _, s := range m {
		s.Show(f)
	}
}
