// Command panel-input reads front-panel buttons, recognises gestures, drives
// the device modes and settings menu, and publishes what happens to MQTT.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/panel-input/internal/app"
	"github.com/sweeney/panel-input/internal/config"
	"github.com/sweeney/panel-input/internal/gpio"
	"github.com/sweeney/panel-input/internal/logic"
	"github.com/sweeney/panel-input/internal/menu"
	"github.com/sweeney/panel-input/internal/mqtt"
	"github.com/sweeney/panel-input/internal/status"
	"github.com/sweeney/panel-input/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "panel-input",
		Short:         "Front-panel button gestures, modes and settings menu",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML configuration file (default: built-in)")

	load := func() (*config.Config, error) {
		return config.Load(cfgPath)
	}
	root.AddCommand(newRunCmd(load), newCheckCmd(load), newStateCmd(load))
	return root
}

func newRunCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		poll      time.Duration
		heartbeat time.Duration
		broker    string
		httpAddr  string
		profile   string
		backend   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the inputs and serve until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("poll") {
				cfg.Poll = poll
			}
			if flags.Changed("heartbeat") {
				cfg.Heartbeat = heartbeat
			}
			if flags.Changed("broker") {
				cfg.MQTT.Broker = broker
			}
			if flags.Changed("http") {
				cfg.HTTP = httpAddr
			}
			if flags.Changed("backend") {
				cfg.GPIO.Backend = backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg, profile)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&poll, "poll", 10*time.Millisecond, "Input polling interval")
	f.DurationVar(&heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	f.StringVar(&broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	f.StringVar(&httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	f.StringVar(&profile, "profile", "", "Behavior profile to select after startup, overriding the initial mode's")
	f.StringVar(&backend, "backend", config.BackendCdev, "GPIO backend: cdev, periph or fake")
	return cmd
}

func newCheckCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the bindings and menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			bank := gpio.NewFakeBank(lineNames(cfg), nil)
			a, err := app.New(cfg, inputs(bank), app.ScreenFunc(func(app.Frame) {}))
			if err != nil {
				return err
			}
			describe(cmd.OutOrStdout(), a)
			return nil
		},
	}
}

func newStateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the current level of every input line and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			bank, err := openBank(cfg)
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer bank.Close()
			if err := bank.Refresh(); err != nil {
				return fmt.Errorf("read gpio: %w", err)
			}
			printState(cmd.OutOrStdout(), bank)
			return nil
		},
	}
}

func run(cfg *config.Config, profile string) error {
	bank, err := openBank(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer bank.Close()

	a, err := app.New(cfg, inputs(bank), app.LogScreen{})
	if err != nil {
		return err
	}
	if profile != "" {
		if err := a.SelectProfile(logic.ProfileID(profile)); err != nil {
			return err
		}
	}

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Topics:   mqtt.NewTopics(cfg.MQTT.Prefix),
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Tracker exists before STARTUP so the snapshot is available.
	bootID := uuid.NewString()
	tracker := status.NewTracker(time.Now(), bootID, status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		History:     cfg.History,
		Backend:     cfg.GPIO.Backend,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP,
	})
	tracker.Update(a.Status())
	tracker.SetMQTTConnected(publisher.IsConnected())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		g.Go(srv.ListenAndServe)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: boot=%s poll=%v history=%d backend=%s broker=%s heartbeat=%v mode=%s",
		bootID, cfg.Poll, cfg.History, cfg.GPIO.Backend, cfg.MQTT.Broker, cfg.Heartbeat, a.Mode())

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	l := &loop{
		bank:       bank,
		app:        a,
		publisher:  publisher,
		mqttStatus: publisher,
		commands:   publisher.Commands(),
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
	}
	g.Go(func() error {
		defer cancel()
		return l.run(ctx, ticker.C, sigCh)
	})
	return g.Wait()
}

// openBank opens the configured GPIO backend.
func openBank(cfg *config.Config) (gpio.Bank, error) {
	lines := make([]gpio.LineConfig, len(cfg.GPIO.Lines))
	for i, l := range cfg.GPIO.Lines {
		lines[i] = gpio.LineConfig{Name: l.Name, Offset: l.Offset, ActiveLow: l.ActiveLow, Bias: l.Bias}
	}

	switch cfg.GPIO.Backend {
	case config.BackendPeriph:
		b, err := gpio.NewPeriphBank(lines)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendFake:
		// All lines idle; useful for exercising MQTT and HTTP off target.
		return gpio.NewFakeBank(lineNames(cfg), []gpio.Sample{{}}), nil
	default:
		b, err := gpio.NewCdevBank(cfg.GPIO.Chip, lines, cfg.GPIO.Debounce)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

func lineNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.GPIO.Lines))
	for i, l := range cfg.GPIO.Lines {
		names[i] = l.Name
	}
	return names
}

func inputs(b gpio.Bank) map[string]logic.Input {
	out := make(map[string]logic.Input)
	for _, p := range b.Pins() {
		out[p.Name()] = p
	}
	return out
}

func describe(w io.Writer, a *app.App) {
	e := a.Engine()
	fmt.Fprintf(w, "history: %d edges per channel\n", e.HistoryCapacity())
	fmt.Fprintln(w, "channels:")
	for _, ch := range e.Channels() {
		var evs []string
		for _, ev := range e.Bindings(ch) {
			mark := ""
			if on, _ := e.BindingEnabled(ch, ev); !on {
				mark = "-"
			}
			evs = append(evs, mark+string(ev))
		}
		fmt.Fprintf(w, "  %s: %s\n", ch, strings.Join(evs, " "))
	}
	fmt.Fprintf(w, "mode: %s (profile %s)\n", a.Mode(), e.ActiveProfile())

	if t := a.Tree(); t != nil {
		fmt.Fprintln(w, "menu:")
		t.Walk(func(id menu.ItemID, depth int) {
			fmt.Fprintf(w, "  %s%s\n", strings.Repeat("  ", depth), t.Item(id).Name)
		})
	}

	s := a.Settings()
	if keys := s.Keys(); len(keys) > 0 {
		fmt.Fprintln(w, "settings:")
		for _, k := range keys {
			v, _ := s.Get(k)
			fmt.Fprintf(w, "  %s = %d\n", k, v)
		}
	}
}

func printState(w io.Writer, b gpio.Bank) {
	for _, p := range b.Pins() {
		fmt.Fprintf(w, "%s: %s\n", p.Name(), levelString(p.Sample()))
	}
}

func levelString(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "IDLE"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
