package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	BootID        string         `json:"boot_id"`
	Mode          string         `json:"mode"`
	Profile       string         `json:"profile"`
	Ready         bool           `json:"ready"`
	Menu          []string       `json:"menu"`
	Channels      []ChannelJSON  `json:"channels"`
	Counts        map[string]int `json:"event_counts"`
	Settings      map[string]int `json:"settings"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// ChannelJSON is one channel's state.
type ChannelJSON struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
	Since   string `json:"since,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	History     int    `json:"history"`
	Backend     string `json:"backend"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

// CountKey is the event_counts key for a channel/event binding.
func CountKey(channel, event string) string {
	return channel + "/" + event
}

func buildInner(snap Snapshot) StatusInner {
	p := snap.Panel
	inner := StatusInner{
		BootID:        snap.BootID,
		Mode:          p.Mode,
		Profile:       string(p.Profile),
		Ready:         snap.Polled,
		Menu:          p.MenuPath,
		Channels:      make([]ChannelJSON, 0, len(p.Channels)),
		Counts:        make(map[string]int, len(p.Counts)),
		Settings:      p.Settings,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			History:     snap.Config.History,
			Backend:     snap.Config.Backend,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if inner.Menu == nil {
		inner.Menu = []string{}
	}
	if inner.Settings == nil {
		inner.Settings = map[string]int{}
	}
	for _, c := range p.Channels {
		cj := ChannelJSON{ID: string(c.ID), Enabled: c.Enabled, Active: c.Active}
		if !c.Since.IsZero() {
			cj.Since = c.Since.UTC().Format(time.RFC3339)
		}
		inner.Channels = append(inner.Channels, cj)
	}
	for k, n := range p.Counts {
		inner.Counts[CountKey(string(k.Channel), string(k.Event))] = n
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
