package main

import (
	"testing"

	"pleb/internal/config"
	"pleb/internal/state"
)

func TestParseState(t *testing.T) {
	cases := map[string]state.PlebState{
		"ready":        state.Ready,
		"Provisioning": state.Provisioning,
		"WAITING":      state.Waiting,
		"working":      state.Working,
		"done":         state.Done,
		"finished":     state.Finished,
	}
	for in, want := range cases {
		got, err := parseState(in)
		if err != nil {
			t.Fatalf("parseState(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseState(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := parseState("bogus"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestCurrentPlebState(t *testing.T) {
	cfg, err := config.FromString("")
	if err != nil {
		t.Fatal(err)
	}

	got, ok := currentPlebState(cfg, []string{"bug", cfg.Labels.Working, "priority:high"})
	if !ok || got != state.Working {
		t.Errorf("currentPlebState = (%s, %v), want (working, true)", got, ok)
	}

	got, ok = currentPlebState(cfg, []string{"bug", "priority:high"})
	if ok {
		t.Errorf("currentPlebState = (%s, %v), want (_, false)", got, ok)
	}
}
