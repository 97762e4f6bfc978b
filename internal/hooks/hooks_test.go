package hooks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractIssueNumber(t *testing.T) {
	cases := []struct {
		path string
		want uint64
		ok   bool
	}{
		{"/path/worktrees/issue-123", 123, true},
		{"/home/user/worktrees/issue-42/src", 42, true},
		{"issue-456", 456, true},
		{"/path/worktrees/2592-add-invoices-table_user_pleb", 2592, true},
		{"/path/no-issue-here", 0, false},
		{"/path/main", 0, false},
	}
	for _, c := range cases {
		got, ok := ExtractIssueNumber(c.path)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ExtractIssueNumber(%q) = (%d, %v), want (%d, %v)", c.path, got, ok, c.want, c.ok)
		}
	}
}

func TestGenerateConfigHasAllEvents(t *testing.T) {
	cfg := GenerateConfig()
	for _, name := range EventNames {
		groups, ok := cfg[name]
		if !ok || len(groups) != 1 || len(groups[0].Hooks) != 1 {
			t.Fatalf("missing or malformed hook group for %s: %+v", name, groups)
		}
		want := "pleb cc-run-hook " + name
		if groups[0].Hooks[0].Command != want {
			t.Errorf("expected command %q, got %q", want, groups[0].Hooks[0].Command)
		}
	}
}

func TestInstallMergesIntoExistingSettings(t *testing.T) {
	dir := t.TempDir()
	claudeDir := filepath.Join(dir, ".claude")
	if err := os.MkdirAll(claudeDir, 0755); err != nil {
		t.Fatal(err)
	}
	existing := `{"otherKey": "preserved"}`
	if err := os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Install(dir); err != nil {
		t.Fatalf("Install: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(claudeDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	var settings map[string]json.RawMessage
	if err := json.Unmarshal(content, &settings); err != nil {
		t.Fatal(err)
	}
	if _, ok := settings["otherKey"]; !ok {
		t.Error("expected otherKey to be preserved")
	}
	if _, ok := settings["hooks"]; !ok {
		t.Error("expected hooks key to be installed")
	}

	for _, name := range []string{"pleb-shipit", "pleb-abandon", "pleb-status", "pleb-cleanup"} {
		if _, err := os.Stat(filepath.Join(claudeDir, "commands", name+".md")); err != nil {
			t.Errorf("expected command file %s to be installed: %v", name, err)
		}
	}
}
