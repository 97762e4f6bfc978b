package agent

import "testing"

func TestPromptFilePath(t *testing.T) {
	if got := promptFilePath(42); got != "/tmp/pleb-prompt-42.md" {
		t.Errorf("unexpected prompt file path: %q", got)
	}
}

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"claude":               "claude",
		"/usr/local/bin/claude": "claude",
		"./claude":             "claude",
	}
	for in, want := range cases {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}
