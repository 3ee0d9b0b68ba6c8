package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/panel-input/internal/app"
	"github.com/sweeney/panel-input/internal/logic"
	"github.com/sweeney/panel-input/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      10,
		HeartbeatMs: 900000,
		History:     8,
		Backend:     "fake",
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, "2b7e", cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func panelStatus() app.Status {
	return app.Status{
		Mode:     "menu",
		Profile:  "menu",
		MenuPath: []string{"Sound", "Volume"},
		Channels: []logic.ChannelState{
			{ID: "select", Enabled: true, Active: true},
			{ID: "up", Enabled: true},
			{ID: "reset", Enabled: false},
		},
		Counts:   map[logic.EventKey]int{{Channel: "select", Event: "hold"}: 3},
		Settings: map[string]int{"volume": 4},
	}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(panelStatus())
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Mode != "menu" || !sj.Status.Ready {
		t.Errorf("mode/ready: %q %v", sj.Status.Mode, sj.Status.Ready)
	}
	if sj.Status.Counts["select/hold"] != 3 {
		t.Errorf("counts: %v", sj.Status.Counts)
	}
	if !sj.Status.MQTT.Connected || sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("mqtt: %+v", sj.Status.MQTT)
	}
	if sj.Status.BootID != "2b7e" {
		t.Errorf("boot id: %q", sj.Status.BootID)
	}
}

func TestHTMLEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(panelStatus())

	for _, path := range []string{"/", "/index.html"} {
		resp, body := get(t, ts.URL+path)
		if resp.StatusCode != 200 {
			t.Errorf("%s: status %d", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: Content-Type %q", path, ct)
		}
		for _, want := range []string{"Sound &gt; Volume", "select/hold", `class="disabled"`, "volume"} {
			if !strings.Contains(body, want) {
				t.Errorf("%s: body missing %q", path, want)
			}
		}
	}
}

func TestHTMLBeforeFirstPoll(t *testing.T) {
	ts, _ := newTestServer(t)
	_, body := get(t, ts.URL+"/")
	if !strings.Contains(body, "closed") || !strings.Contains(body, "none") {
		t.Error("empty status should render menu closed and mode none")
	}
}

func TestHealth(t *testing.T) {
	ts, tr := newTestServer(t)

	if resp, _ := get(t, ts.URL+"/healthz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("before poll: got %d, want 503", resp.StatusCode)
	}
	tr.Update(app.Status{})
	if resp, body := get(t, ts.URL+"/healthz"); resp.StatusCode != 200 || body != "ok\n" {
		t.Errorf("after poll: got %d %q", resp.StatusCode, body)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	if resp, _ := get(t, ts.URL+"/nonexistent"); resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	var sj status.StatusJSON
	_, body := get(t, ts.URL+"/index.json")
	json.Unmarshal([]byte(body), &sj)
	if sj.Status.Ready {
		t.Error("expected Ready=false initially")
	}

	st := panelStatus()
	st.Mode = "standby"
	st.MenuPath = nil
	tr.Update(st)

	_, body = get(t, ts.URL+"/index.json")
	sj = status.StatusJSON{}
	json.Unmarshal([]byte(body), &sj)
	if !sj.Status.Ready || sj.Status.Mode != "standby" || len(sj.Status.Menu) != 0 {
		t.Errorf("after update: %+v", sj.Status)
	}
}
