package logic

import (
	"errors"
	"testing"
	"time"
)

func setupProfiles(t *testing.T) (*Engine, *testInput, *[]Event) {
	t.Helper()
	e, in, got := setupEngine(t, tapEvent(400*time.Millisecond), holdEvent(500*time.Millisecond))
	profiles := []Profile{
		{ID: "off", Enabled: map[ChannelID][]EventID{"btn": {"hold"}}},
		{ID: "menu", Enabled: map[ChannelID][]EventID{"btn": {"tap", "hold"}}},
		{ID: "locked"},
	}
	for _, p := range profiles {
		if err := e.AddProfile(p); err != nil {
			t.Fatalf("AddProfile %s: %v", p.ID, err)
		}
	}
	return e, in, got
}

func TestProfileDisablesBinding(t *testing.T) {
	e, in, got := setupProfiles(t)
	if err := e.SelectProfile("off"); err != nil {
		t.Fatal(err)
	}

	// Exactly the input that matches a tap when the binding is enabled.
	drive(e, in, []step{{0, false}, {100, true}, {200, false}, {300, false}})
	for _, ev := range *got {
		if ev.EventID == "tap" {
			t.Fatalf("tap fired while disabled by profile: %v", *got)
		}
	}

	if err := e.SelectProfile("menu"); err != nil {
		t.Fatal(err)
	}
	drive(e, in, []step{{400, true}, {500, false}})
	if len(*got) != 1 || (*got)[0].EventID != "tap" {
		t.Errorf("expected one tap after enabling profile, got %v", *got)
	}
}

func TestProfileSelectRederivesAllFlags(t *testing.T) {
	e, _, _ := setupProfiles(t)

	tests := []struct {
		profile  ProfileID
		wantTap  bool
		wantHold bool
	}{
		{"off", false, true},
		{"menu", true, true},
		{"locked", false, false},
		{"off", false, true},
	}
	for _, tt := range tests {
		if err := e.SelectProfile(tt.profile); err != nil {
			t.Fatalf("select %s: %v", tt.profile, err)
		}
		tap, _ := e.BindingEnabled("btn", "tap")
		hold, _ := e.BindingEnabled("btn", "hold")
		if tap != tt.wantTap || hold != tt.wantHold {
			t.Errorf("%s: tap=%v hold=%v, want tap=%v hold=%v", tt.profile, tap, hold, tt.wantTap, tt.wantHold)
		}
		if e.ActiveProfile() != tt.profile {
			t.Errorf("active profile: got %q, want %q", e.ActiveProfile(), tt.profile)
		}
	}
}

func TestSelectUnknownProfileKeepsFlags(t *testing.T) {
	e, _, _ := setupProfiles(t)
	e.SelectProfile("off")

	err := e.SelectProfile("missing")
	if !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("got %v, want ErrUnknownProfile", err)
	}
	tap, _ := e.BindingEnabled("btn", "tap")
	hold, _ := e.BindingEnabled("btn", "hold")
	if tap || !hold {
		t.Errorf("flags changed by failed select: tap=%v hold=%v", tap, hold)
	}
	if e.ActiveProfile() != "off" {
		t.Errorf("active profile: got %q, want off", e.ActiveProfile())
	}
}

func TestProfileSelectFromHandler(t *testing.T) {
	e, in, _ := setupProfiles(t)
	e.SelectProfile("off")

	var seen []EventID
	e.SetHandler("btn", func(ev Event) {
		seen = append(seen, ev.EventID)
		if ev.EventID == "hold" {
			e.SelectProfile("menu")
		}
	})

	drive(e, in, []step{{0, false}, {100, true}, {600, true}, {700, false}})
	drive(e, in, []step{{800, true}, {900, false}})

	want := []EventID{"hold", "tap"}
	if len(seen) != len(want) {
		t.Fatalf("events: got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestDuplicateProfile(t *testing.T) {
	e, _, _ := setupProfiles(t)
	if err := e.AddProfile(Profile{ID: "off"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("got %v, want ErrDuplicateID", err)
	}
	if !e.HasProfile("menu") || e.HasProfile("nope") {
		t.Error("HasProfile mismatch")
	}
}
