// Package hooks generates the Claude Code hook configuration installed
// into each worktree and merges it into .claude/settings.json without
// disturbing any other keys already present there.
package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pleb/internal/worktree"
)

// EventNames are the four hook events pleb registers. Unknown event
// names arriving over the IPC socket are logged and acknowledged without
// effect, which keeps the daemon forward-compatible with agent runtimes
// that add new hook types.
var EventNames = []string{"Stop", "UserPromptSubmit", "PostToolUse", "PermissionRequest"}

type hookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

type hookGroup struct {
	Hooks []hookEntry `json:"hooks"`
}

// GenerateConfig builds the value of the settings file's "hooks" key,
// mapping each event name to an invocation of `pleb cc-run-hook
// <EventName>`. Install places it under that key.
func GenerateConfig() map[string][]hookGroup {
	config := make(map[string][]hookGroup, len(EventNames))
	for _, name := range EventNames {
		config[name] = []hookGroup{{
			Hooks: []hookEntry{{Type: "command", Command: "pleb cc-run-hook " + name}},
		}}
	}
	return config
}

// Install writes the hook configuration into path/.claude/settings.json,
// merging with (not overwriting) any other top-level keys already
// present, then installs the slash-command files alongside it.
func Install(path string) error {
	claudeDir := filepath.Join(path, ".claude")
	if err := os.MkdirAll(claudeDir, 0755); err != nil {
		return fmt.Errorf("create .claude directory: %w", err)
	}

	settingsFile := filepath.Join(claudeDir, "settings.json")
	settings := map[string]json.RawMessage{}
	if content, err := os.ReadFile(settingsFile); err == nil {
		if err := json.Unmarshal(content, &settings); err != nil {
			return fmt.Errorf("parse existing %s: %w", settingsFile, err)
		}
	}

	hooksJSON, err := json.Marshal(GenerateConfig())
	if err != nil {
		return fmt.Errorf("marshal hooks config: %w", err)
	}
	settings["hooks"] = hooksJSON

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(settingsFile, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", settingsFile, err)
	}

	return InstallCommands(path)
}

// ExtractIssueNumber parses the issue number out of a worktree path. It
// is a thin alias over worktree.IssueNumberFromPath so cc-run-hook's cwd
// parsing can't drift from the worktree package's own naming convention.
func ExtractIssueNumber(path string) (uint64, bool) {
	return worktree.IssueNumberFromPath(path)
}
