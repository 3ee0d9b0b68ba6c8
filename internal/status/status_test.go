package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/panel-input/internal/app"
	"github.com/sweeney/panel-input/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testStatus() app.Status {
	return app.Status{
		Mode:     "menu",
		Profile:  "menu",
		MenuPath: []string{"Display", "Brightness"},
		Channels: []logic.ChannelState{
			{ID: "select", Enabled: true, Active: true, Since: start.Add(90 * time.Second)},
			{ID: "reset", Enabled: false},
		},
		Counts: map[logic.EventKey]int{
			{Channel: "select", Event: "hold"}: 2,
			{Channel: "down", Event: "tap"}:    5,
		},
		Settings: map[string]int{"brightness": 7},
	}
}

func TestNewTracker(t *testing.T) {
	cfg := Config{PollMs: 10, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, "boot-1", cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.BootID != "boot-1" {
		t.Errorf("BootID: got %q", snap.BootID)
	}
	if snap.Config != cfg {
		t.Errorf("Config: got %+v", snap.Config)
	}
	if snap.Polled || snap.MQTTConnected {
		t.Error("expected Polled and MQTTConnected false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, "", Config{})
	tr.Update(testStatus())

	snap := tr.Snapshot()
	if !snap.Polled {
		t.Error("expected Polled after Update")
	}
	if snap.Panel.Mode != "menu" || len(snap.Panel.MenuPath) != 2 {
		t.Errorf("panel: got %+v", snap.Panel)
	}
	if snap.Now.Before(start) {
		t.Errorf("Now not set: %v", snap.Now)
	}
}

func TestSetMQTTConnectedAndNetwork(t *testing.T) {
	tr := NewTracker(start, "", Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42"})
	if n := tr.Snapshot().Network; n == nil || n.IP != "192.168.1.42" {
		t.Errorf("Network: got %+v", n)
	}
}

func TestUptime(t *testing.T) {
	s := Snapshot{StartTime: start, Now: start.Add(90 * time.Minute)}
	if s.Uptime() != 90*time.Minute {
		t.Errorf("Uptime: got %v", s.Uptime())
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(testStatus())
				tr.SetMQTTConnected(j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = FormatJSON(tr.Snapshot())
			}
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Panel:         testStatus(),
		Polled:        true,
		BootID:        "3f0c",
		StartTime:     start,
		Now:           start.Add(2 * time.Minute),
		MQTTConnected: true,
		Network:       &NetworkInfo{Type: "ethernet", IP: "10.0.0.5", Status: "connected"},
		Config:        Config{PollMs: 10, HeartbeatMs: 900000, History: 8, Backend: "cdev", Broker: "tcp://b:1883", HTTPAddr: ":80"},
	}

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := sj.Status

	if s.Event != "" || s.Reason != "" {
		t.Errorf("web status should carry no event: %q %q", s.Event, s.Reason)
	}
	if s.Mode != "menu" || s.Profile != "menu" || !s.Ready || s.BootID != "3f0c" {
		t.Errorf("header fields: %+v", s)
	}
	if len(s.Menu) != 2 || s.Menu[1] != "Brightness" {
		t.Errorf("menu: %v", s.Menu)
	}
	if s.UptimeSeconds != 120 {
		t.Errorf("uptime: got %d, want 120", s.UptimeSeconds)
	}
	if s.Counts["select/hold"] != 2 || s.Counts["down/tap"] != 5 {
		t.Errorf("counts: %v", s.Counts)
	}
	if len(s.Channels) != 2 || s.Channels[0].Since != "2026-01-01T00:01:30Z" || s.Channels[1].Since != "" {
		t.Errorf("channels: %+v", s.Channels)
	}
	if s.Settings["brightness"] != 7 {
		t.Errorf("settings: %v", s.Settings)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("mqtt: %+v", s.MQTT)
	}
	if s.Network == nil || s.Network.Type != "ethernet" {
		t.Errorf("network: %+v", s.Network)
	}
	if s.Config.Backend != "cdev" || s.Config.History != 8 {
		t.Errorf("config: %+v", s.Config)
	}
}

func TestFormatJSONEmptySnapshot(t *testing.T) {
	data := FormatJSON(Snapshot{StartTime: start, Now: start})

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed["status"]
	if _, ok := s["network"]; ok {
		t.Error("network should be omitted when nil")
	}
	if menu, ok := s["menu"].([]interface{}); !ok || len(menu) != 0 {
		t.Errorf("menu should be an empty list, got %v", s["menu"])
	}
	if s["ready"] != false {
		t.Errorf("ready: got %v", s["ready"])
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{Panel: testStatus(), StartTime: start, Now: start}
	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var sj StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: %q/%q", sj.Status.Event, sj.Status.Reason)
	}

	var raw map[string]map[string]interface{}
	json.Unmarshal(FormatStatusEvent(snap, "HEARTBEAT", ""), &raw)
	if _, ok := raw["status"]["reason"]; ok {
		t.Error("reason should be omitted when empty")
	}
}
