package config

import (
	"os"
	"path/filepath"
	"testing"

	"pleb/internal/state"
)

const minimalConfig = `
[github]
owner = "testowner"
repo = "testrepo"

[labels]
[claude]
[paths]
[prompts]
[watch]
[tmux]
[branch]
`

const fullConfig = `
[github]
owner = "myorg"
repo = "myrepo"
token_env = "MY_GITHUB_TOKEN"

[labels]
ready = "custom:ready"
provisioning = "custom:provisioning"
waiting = "custom:waiting"
working = "custom:working"
done = "custom:done"
finished = "custom:finished"

[claude]
command = "/usr/local/bin/claude"
args = ["--verbose", "--no-cache"]

[paths]
repo_dir = "/custom/repo"
worktree_base = "/custom/worktrees"

[prompts]
dir = "/custom/prompts"
new_issue = "custom_new.md"

[watch]
poll_interval_secs = 30

[tmux]
session_name = "custom-session"

[branch]
suffix = "custom-suffix"
`

func TestFromStringAppliesDefaults(t *testing.T) {
	c, err := FromString(minimalConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.GitHub.TokenEnv != "GITHUB_TOKEN" {
		t.Errorf("expected default token_env, got %q", c.GitHub.TokenEnv)
	}
	if c.Labels.Ready != "pleb:ready" {
		t.Errorf("expected default ready label, got %q", c.Labels.Ready)
	}
	if c.Watch.PollIntervalSecs != 5 {
		t.Errorf("expected default poll interval 5, got %d", c.Watch.PollIntervalSecs)
	}
	if c.Tmux.SessionName != "pleb" {
		t.Errorf("expected default session name, got %q", c.Tmux.SessionName)
	}
	if c.Branch.Suffix != "pleb" {
		t.Errorf("expected default branch suffix, got %q", c.Branch.Suffix)
	}
	if len(c.Claude.Args) != 1 || c.Claude.Args[0] != "--dangerously-skip-permissions" {
		t.Errorf("unexpected default claude args: %v", c.Claude.Args)
	}
}

func TestFromStringFullOverridesDefaults(t *testing.T) {
	c, err := FromString(fullConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.GitHub.TokenEnv != "MY_GITHUB_TOKEN" {
		t.Errorf("expected overridden token_env, got %q", c.GitHub.TokenEnv)
	}
	if c.Labels.Ready != "custom:ready" {
		t.Errorf("expected overridden ready label, got %q", c.Labels.Ready)
	}
	if c.Watch.PollIntervalSecs != 30 {
		t.Errorf("expected overridden poll interval, got %d", c.Watch.PollIntervalSecs)
	}
}

func TestValidateRejectsDuplicateLabels(t *testing.T) {
	c, err := FromString(minimalConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Labels.Waiting = c.Labels.Working
	t.Setenv(c.GitHub.TokenEnv, "token")
	if _, err := c.Validate(); err == nil {
		t.Error("expected validation error for duplicate labels")
	}
}

func TestValidateRequiresToken(t *testing.T) {
	c, err := FromString(minimalConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	os.Unsetenv(c.GitHub.TokenEnv)
	if _, err := c.Validate(); err == nil {
		t.Error("expected validation error for missing token")
	}
}

func TestValidateRequiresPromptFiles(t *testing.T) {
	dir := t.TempDir()
	c, err := FromString(minimalConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Setenv(c.GitHub.TokenEnv, "token")
	c.Prompts.Dir = dir
	c.Prompts.NewIssue = "new_issue.md"
	if _, err := c.Validate(); err == nil {
		t.Error("expected validation error for missing prompt file")
	}
	if err := os.WriteFile(filepath.Join(dir, "new_issue.md"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Validate(); err != nil {
		t.Errorf("unexpected error after creating prompt file: %v", err)
	}
}

func TestLabelForAndStateForLabelAreInverses(t *testing.T) {
	c, err := FromString(minimalConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range state.All {
		label := c.LabelFor(s)
		got, ok := c.StateForLabel(label)
		if !ok || got != s {
			t.Errorf("roundtrip failed for %s: label=%q got=%s ok=%v", s, label, got, ok)
		}
	}
}

func TestResolvePathsRelativeTo(t *testing.T) {
	c, err := FromString(minimalConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.ResolvePathsRelativeTo("/base/dir")
	if c.Paths.RepoDir != "/base/dir/repo" {
		t.Errorf("expected resolved repo dir, got %q", c.Paths.RepoDir)
	}
	if c.Paths.WorktreeBase != "/base/dir/worktrees" {
		t.Errorf("expected resolved worktree base, got %q", c.Paths.WorktreeBase)
	}
}

func TestDaemonDirNaming(t *testing.T) {
	c, err := FromString(minimalConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dir, err := c.DaemonDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(dir) != "testowner-testrepo" {
		t.Errorf("unexpected daemon dir: %s", dir)
	}
}
