// Package app ties gesture recognition to the panel's device modes and
// settings menu. An App is built once from configuration and driven by
// Poll from a single goroutine.
package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/panel-input/internal/config"
	"github.com/sweeney/panel-input/internal/logic"
	"github.com/sweeney/panel-input/internal/menu"
)

// ErrUnknownMode is returned when selecting a mode that is not configured.
var ErrUnknownMode = errors.New("unknown mode")

type mode struct {
	name    string
	profile logic.ProfileID
	actions map[logic.EventKey]config.Action
}

// App owns the recognition engine, the menu and the settings.
type App struct {
	engine   *logic.Engine
	tree     *menu.Tree
	nav      *menu.Navigator
	modes    map[string]*mode
	mode     string
	menuMode string
	exitMode string
	settings *Settings
	screen   Screen
	commits  []Commit
}

// Status is a point-in-time view of the application.
type Status struct {
	Mode     string
	Profile  logic.ProfileID
	MenuPath []string
	Channels []logic.ChannelState
	Counts   map[logic.EventKey]int
	Settings map[string]int
}

// New builds an App from cfg. inputs maps configured line names to their
// sources. Every configuration error is reported here, before polling.
func New(cfg *config.Config, inputs map[string]logic.Input, screen Screen) (*App, error) {
	if screen == nil {
		screen = LogScreen{}
	}
	a := &App{
		engine:   logic.NewEngine(logic.WithHistoryCapacity(cfg.History)),
		modes:    make(map[string]*mode),
		settings: newSettings(),
		screen:   screen,
	}

	if err := a.buildEngine(cfg, inputs); err != nil {
		return nil, err
	}
	if err := a.buildModes(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Menu.Items) > 0 {
		if err := a.buildMenu(cfg.Menu); err != nil {
			return nil, err
		}
	}

	if cfg.Initial != "" {
		if err := a.setMode(cfg.Initial); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) buildEngine(cfg *config.Config, inputs map[string]logic.Input) error {
	e := a.engine
	for _, ch := range cfg.Channels {
		sources := make([]logic.Input, 0, len(ch.Sources))
		for _, name := range ch.Sources {
			in, ok := inputs[name]
			if !ok {
				return fmt.Errorf("channel %q: no input %q", ch.ID, name)
			}
			sources = append(sources, in)
		}
		id := logic.ChannelID(ch.ID)
		if err := e.AddChannel(id, sources...); err != nil {
			return err
		}
		if ch.Disabled {
			if err := e.SetChannelEnabled(id, false); err != nil {
				return err
			}
		}
		if err := e.SetHandler(id, a.handle); err != nil {
			return err
		}
	}

	for _, ev := range cfg.Events {
		def := logic.EventDefinition{ID: logic.EventID(ev.ID)}
		for _, s := range ev.Sequence {
			def.Sequence = append(def.Sequence, logic.StateConstraint{
				Active:  s.Active,
				MinHold: s.MinHold,
				MaxGap:  s.MaxGap,
			})
		}
		if err := e.AddEvent(def); err != nil {
			return err
		}
	}

	for _, b := range cfg.Bindings {
		for _, ev := range b.Events {
			if err := e.Bind(logic.ChannelID(b.Channel), logic.EventID(ev)); err != nil {
				return err
			}
		}
	}

	for _, p := range cfg.Profiles {
		prof := logic.Profile{ID: logic.ProfileID(p.ID), Enabled: make(map[logic.ChannelID][]logic.EventID)}
		for ch, evs := range p.Enable {
			for _, ev := range evs {
				prof.Enabled[logic.ChannelID(ch)] = append(prof.Enabled[logic.ChannelID(ch)], logic.EventID(ev))
			}
		}
		if err := e.AddProfile(prof); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) buildModes(cfg *config.Config) error {
	for _, m := range cfg.Modes {
		md := &mode{
			name:    m.Name,
			profile: logic.ProfileID(m.Profile),
			actions: make(map[logic.EventKey]config.Action),
		}
		for _, act := range m.Actions {
			key := logic.EventKey{Channel: logic.ChannelID(act.Channel), Event: logic.EventID(act.Event)}
			if _, err := a.engine.BindingEnabled(key.Channel, key.Event); err != nil {
				return fmt.Errorf("mode %q action %s: %w", m.Name, act.Do, err)
			}
			md.actions[key] = act
		}
		a.modes[m.Name] = md
	}
	return nil
}

func (a *App) buildMenu(cfg config.Menu) error {
	a.menuMode = cfg.Mode
	a.exitMode = cfg.ExitMode

	a.tree = menu.NewTree(cfg.Name, menu.Hooks{Exit: a.menuClosed})
	if err := a.addItems(menu.Root, cfg.Items); err != nil {
		return err
	}
	if err := a.tree.Validate(); err != nil {
		return err
	}
	a.nav = menu.NewNavigator(a.tree)
	return nil
}

func (a *App) addItems(parent menu.ItemID, items []config.MenuItem) error {
	for _, it := range items {
		id, err := a.tree.Add(parent, it.Name, menu.Hooks{})
		if err != nil {
			return err
		}
		hooks := menu.Hooks{Display: a.displayHook(id)}
		if it.Setting != nil {
			a.settings.define(*it.Setting)
			hooks.Edit = a.editHook(id, *it.Setting)
		}
		if err := a.tree.SetHooks(id, hooks); err != nil {
			return err
		}
		if err := a.addItems(id, it.Items); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) displayHook(id menu.ItemID) func(menu.Transition) {
	return func(tr menu.Transition) {
		a.screen.Show(Frame{Path: a.tree.Path(id), Transition: tr.String()})
	}
}

// editHook keeps an uncommitted copy of the value while the item is being
// edited; Write stores it. An edit always starts from the stored value, even
// when the first call is not Read.
func (a *App) editHook(id menu.ItemID, def config.Setting) func(menu.EditMode) {
	var (
		scratch int
		editing bool
	)
	return func(m menu.EditMode) {
		if m == menu.EditRead || !editing {
			scratch, _ = a.settings.Get(def.Key)
			editing = true
		}
		switch m {
		case menu.EditIncrease:
			scratch = clamp(scratch+def.Step, def.Min, def.Max)
		case menu.EditDecrease:
			scratch = clamp(scratch-def.Step, def.Min, def.Max)
		case menu.EditWrite:
			editing = false
			if err := a.settings.Set(def.Key, scratch); err != nil {
				log.Printf("setting %s: %v", def.Key, err)
				return
			}
			v, _ := a.settings.Get(def.Key)
			a.commits = append(a.commits, Commit{Key: def.Key, Value: v})
			return
		}
		a.screen.Show(Frame{Path: a.tree.Path(id), Editing: true, Value: scratch})
	}
}

func (a *App) menuClosed() {
	a.screen.Show(Frame{})
	if err := a.setMode(a.exitMode); err != nil {
		log.Printf("menu exit: %v", err)
	}
}

// handle is the channel handler for every configured channel.
func (a *App) handle(ev logic.Event) {
	md := a.modes[a.mode]
	if md == nil {
		return
	}
	act, ok := md.actions[logic.EventKey{Channel: ev.ChannelID, Event: ev.EventID}]
	if !ok {
		return
	}

	switch act.Do {
	case config.ActionMode:
		if err := a.SetMode(act.Target); err != nil {
			log.Printf("action %s/%s: %v", ev.ChannelID, ev.EventID, err)
		}
		return
	case config.ActionMenuOpen:
		a.openMenu()
		return
	}

	if a.nav == nil || !a.nav.Open() {
		return
	}
	switch act.Do {
	case config.ActionMenuNext:
		a.nav.Next()
	case config.ActionMenuPrevious:
		a.nav.Previous()
	case config.ActionMenuSelect:
		a.nav.ItemEnter()
	case config.ActionMenuExit:
		a.nav.Exit()
	}
}

func (a *App) openMenu() {
	if a.nav == nil {
		return
	}
	if err := a.setMode(a.menuMode); err != nil {
		log.Printf("menu open: %v", err)
		return
	}
	a.nav.Enter()
}

// SetMode switches device mode. Switching to the menu mode opens the menu;
// switching away from it while the menu is open closes the menu first.
func (a *App) SetMode(name string) error {
	if _, ok := a.modes[name]; !ok {
		return fmt.Errorf("mode %q: %w", name, ErrUnknownMode)
	}
	if a.nav != nil {
		if name == a.menuMode && !a.nav.Open() {
			a.openMenu()
			return nil
		}
		if name != a.menuMode && a.nav.Open() {
			a.nav.Exit()
		}
	}
	return a.setMode(name)
}

func (a *App) setMode(name string) error {
	md, ok := a.modes[name]
	if !ok {
		return fmt.Errorf("mode %q: %w", name, ErrUnknownMode)
	}
	if err := a.engine.SelectProfile(md.profile); err != nil {
		return err
	}
	if a.mode != name {
		log.Printf("mode: %s -> %s (profile %s)", modeName(a.mode), name, md.profile)
	}
	a.mode = name
	return nil
}

func modeName(m string) string {
	if m == "" {
		return "(none)"
	}
	return m
}

// SelectProfile overrides the behavior profile without changing mode.
func (a *App) SelectProfile(id logic.ProfileID) error {
	return a.engine.SelectProfile(id)
}

// Poll advances recognition by one tick.
func (a *App) Poll(now time.Time) []logic.Event {
	return a.engine.Poll(now)
}

// DrainCommits returns the settings written since the last call.
func (a *App) DrainCommits() []Commit {
	c := a.commits
	a.commits = nil
	return c
}

// Mode returns the current device mode.
func (a *App) Mode() string {
	return a.mode
}

// Engine exposes the recognition engine for inspection.
func (a *App) Engine() *logic.Engine {
	return a.engine
}

// Tree returns the menu tree, or nil when no menu is configured.
func (a *App) Tree() *menu.Tree {
	return a.tree
}

// Settings returns the settings store.
func (a *App) Settings() *Settings {
	return a.settings
}

// Status reports the current state.
func (a *App) Status() Status {
	s := Status{
		Mode:     a.mode,
		Profile:  a.engine.ActiveProfile(),
		Channels: a.engine.ChannelStates(),
		Counts:   a.engine.Counts(),
		Settings: a.settings.Snapshot(),
	}
	if a.nav != nil {
		s.MenuPath = a.nav.Path()
	}
	return s
}
