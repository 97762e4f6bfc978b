package tmux

import "testing"

func TestWindowName(t *testing.T) {
	if got := windowName(42); got != "issue-42" {
		t.Errorf("expected issue-42, got %q", got)
	}
}

func TestWithEnv(t *testing.T) {
	m := New("pleb").WithEnv("GITHUB_TOKEN", "abc").WithEnv("FOO", "bar")
	if len(m.EnvVars) != 2 {
		t.Fatalf("expected 2 env vars, got %d", len(m.EnvVars))
	}
	if m.EnvVars[0][0] != "GITHUB_TOKEN" || m.EnvVars[0][1] != "abc" {
		t.Errorf("unexpected first env var: %v", m.EnvVars[0])
	}
}
