package main

import (
	"context"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/panel-input/internal/app"
	"github.com/sweeney/panel-input/internal/gpio"
	"github.com/sweeney/panel-input/internal/logic"
	"github.com/sweeney/panel-input/internal/mqtt"
	"github.com/sweeney/panel-input/internal/status"
)

// loop owns the App. Every call into it happens on the goroutine running
// run, so remote commands are queued and applied between polls.
type loop struct {
	bank       gpio.Bank
	app        *app.App
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	commands   <-chan mqtt.Command
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time
}

func (l *loop) run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := l.now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			l.shutdown(signalName(s))
			return nil

		case <-ctx.Done():
			l.shutdown("CANCELLED")
			return ctx.Err()

		case c := <-l.commands:
			l.apply(c)
			l.updateStatus()

		case <-tick:
			t := l.now()
			if err := l.bank.Refresh(); err != nil {
				log.Printf("gpio refresh error: %v", err)
				continue
			}

			for _, ev := range l.app.Poll(t) {
				log.Printf("event: %s/%s (mode=%s)", ev.ChannelID, ev.EventID, l.app.Mode())
				if err := l.publisher.Publish(ev); err != nil {
					log.Printf("publish error: %v", err)
				}
			}
			for _, c := range l.app.DrainCommits() {
				log.Printf("setting: %s=%d", c.Key, c.Value)
				if err := l.publisher.PublishSetting(mqtt.Setting{Timestamp: t, Key: c.Key, Value: c.Value}); err != nil {
					log.Printf("publish setting error: %v", err)
				}
			}

			l.updateStatus()

			if l.heartbeat > 0 && t.Sub(lastHeartbeat) >= l.heartbeat {
				lastHeartbeat = t
				if net := readNetworkInfo(); net != nil {
					l.tracker.SetNetwork(net)
				}
				snap := l.tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v mode=%s", snap.Uptime().Truncate(time.Second), snap.Panel.Mode)
				hb := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := l.publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// apply runs a remote command. A mode is applied before a profile so a
// command carrying both leaves the requested profile in force.
func (l *loop) apply(c mqtt.Command) {
	if c.Mode != "" {
		if err := l.app.SetMode(c.Mode); err != nil {
			log.Printf("command: %v", err)
		}
	}
	if c.Profile != "" {
		if err := l.app.SelectProfile(logic.ProfileID(c.Profile)); err != nil {
			log.Printf("command: %v", err)
		}
	}
}

func (l *loop) updateStatus() {
	l.tracker.Update(l.app.Status())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) shutdown(reason string) {
	l.updateStatus()
	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
