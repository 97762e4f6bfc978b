// Package config loads and validates the TOML-shaped pleb configuration
// file: repository identity, label mapping, agent invocation, paths,
// watch interval, provision hooks, and prompt filenames.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"pleb/internal/state"
)

// Config is the fully-resolved, defaulted configuration for one repository.
type Config struct {
	GitHub    GitHubConfig    `toml:"github"`
	Labels    LabelConfig     `toml:"labels"`
	Claude    ClaudeConfig    `toml:"claude"`
	Paths     PathConfig      `toml:"paths"`
	Prompts   PromptsConfig   `toml:"prompts"`
	Watch     WatchConfig     `toml:"watch"`
	Tmux      TmuxConfig      `toml:"tmux"`
	Branch    BranchConfig    `toml:"branch"`
	Provision ProvisionConfig `toml:"provision"`
}

type GitHubConfig struct {
	Owner    string `toml:"owner"`
	Repo     string `toml:"repo"`
	TokenEnv string `toml:"token_env"`
}

// LabelConfig maps each PlebState to its externally visible label string.
type LabelConfig struct {
	Ready        string `toml:"ready"`
	Provisioning string `toml:"provisioning"`
	Waiting      string `toml:"waiting"`
	Working      string `toml:"working"`
	Done         string `toml:"done"`
	Finished     string `toml:"finished"`
}

type ClaudeConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

type PathConfig struct {
	RepoDir      string `toml:"repo_dir"`
	WorktreeBase string `toml:"worktree_base"`
}

type PromptsConfig struct {
	Dir      string `toml:"dir"`
	NewIssue string `toml:"new_issue"`
}

type WatchConfig struct {
	PollIntervalSecs uint64 `toml:"poll_interval_secs"`
}

type TmuxConfig struct {
	SessionName string `toml:"session_name"`
}

type BranchConfig struct {
	Suffix string `toml:"suffix"`
}

// ProvisionConfig lists shell commands to run inside the window after
// creation, before the coding agent starts. Best-effort: exit status is
// not observed.
type ProvisionConfig struct {
	OnProvision []string `toml:"on_provision"`
}

// Location describes where a config file was found relative to the
// process's starting directory.
type Location int

const (
	LocationPWD Location = iota
	LocationParent
)

func (l Location) String() string {
	if l == LocationPWD {
		return "PWD"
	}
	return "PARENT"
}

// setDefaults fills in every option the TOML file left unset. Go's TOML
// decoder has no per-field default tag, so this mirrors the Rust source's
// #[serde(default = "...")] functions as one explicit pass run after
// decode, applied only where the destination field is still its zero
// value.
func setDefaults(c *Config) {
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
	if c.Labels.Ready == "" {
		c.Labels.Ready = "pleb:ready"
	}
	if c.Labels.Provisioning == "" {
		c.Labels.Provisioning = "pleb:provisioning"
	}
	if c.Labels.Waiting == "" {
		c.Labels.Waiting = "pleb:waiting"
	}
	if c.Labels.Working == "" {
		c.Labels.Working = "pleb:working"
	}
	if c.Labels.Done == "" {
		c.Labels.Done = "pleb:done"
	}
	if c.Labels.Finished == "" {
		c.Labels.Finished = "pleb:finished"
	}
	if c.Claude.Command == "" {
		c.Claude.Command = "claude"
	}
	if len(c.Claude.Args) == 0 {
		c.Claude.Args = []string{"--dangerously-skip-permissions"}
	}
	if c.Paths.RepoDir == "" {
		c.Paths.RepoDir = "./repo"
	}
	if c.Paths.WorktreeBase == "" {
		c.Paths.WorktreeBase = "./worktrees"
	}
	if c.Prompts.Dir == "" {
		c.Prompts.Dir = "./prompts"
	}
	if c.Prompts.NewIssue == "" {
		c.Prompts.NewIssue = "new_issue.md"
	}
	if c.Watch.PollIntervalSecs == 0 {
		c.Watch.PollIntervalSecs = 5
	}
	if c.Tmux.SessionName == "" {
		c.Tmux.SessionName = "pleb"
	}
	if c.Branch.Suffix == "" {
		c.Branch.Suffix = "pleb"
	}
}

// Load reads and parses a config file at path, applying defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var c Config
	if _, err := toml.Decode(string(content), &c); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	setDefaults(&c)
	return &c, nil
}

// FromString parses configuration from a TOML string, used by tests.
func FromString(content string) (*Config, error) {
	var c Config
	if _, err := toml.Decode(content, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	setDefaults(&c)
	return &c, nil
}

// resolveRelative resolves p against base when p is not already absolute.
func resolveRelative(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// ResolvePathsRelativeTo rewrites every relative path field against
// baseDir, so a config discovered in an ancestor directory still resolves
// "./repo"-style paths against the config file's own location rather than
// the process's original working directory.
func (c *Config) ResolvePathsRelativeTo(baseDir string) {
	c.Paths.RepoDir = resolveRelative(baseDir, c.Paths.RepoDir)
	c.Paths.WorktreeBase = resolveRelative(baseDir, c.Paths.WorktreeBase)
	c.Prompts.Dir = resolveRelative(baseDir, c.Prompts.Dir)
}

// FindAndLoad searches the current directory and up to two parent
// directories for filename, loads the first match, and resolves its
// relative paths against the directory it was found in.
func FindAndLoad(filename string) (*Config, string, Location, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", 0, fmt.Errorf("get working directory: %w", err)
	}

	type candidate struct {
		dir      string
		location Location
	}
	candidates := []candidate{
		{cwd, LocationPWD},
		{filepath.Dir(cwd), LocationParent},
		{filepath.Dir(filepath.Dir(cwd)), LocationParent},
	}

	for _, cand := range candidates {
		if cand.dir == "" || cand.dir == "." {
			continue
		}
		path := filepath.Join(cand.dir, filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		c, err := Load(path)
		if err != nil {
			return nil, "", 0, err
		}
		c.ResolvePathsRelativeTo(filepath.Dir(path))
		return c, path, cand.location, nil
	}

	return nil, "", 0, fmt.Errorf("config file %q not found in current directory or up to 2 parent directories", filename)
}

// DaemonDir returns ~/.pleb/{owner}-{repo}, the per-repository root for
// the PID file, log file, hook socket, and per-issue work directories.
func (c *Config) DaemonDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".pleb", fmt.Sprintf("%s-%s", c.GitHub.Owner, c.GitHub.Repo)), nil
}

// LogFile returns the daemon's log file path.
func (c *Config) LogFile() (string, error) {
	dir, err := c.DaemonDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pleb.log"), nil
}

// PIDFile returns the daemon's PID file path.
func (c *Config) PIDFile() (string, error) {
	dir, err := c.DaemonDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pleb.pid"), nil
}

// SocketFile returns the daemon's hook IPC socket path.
func (c *Config) SocketFile() (string, error) {
	dir, err := c.DaemonDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pleb.sock"), nil
}

// Validate fails loudly on any configuration problem before the caller
// performs network or filesystem side effects. It also emits non-fatal
// warnings (via the returned slice) for conditions that are fine at
// startup but worth surfacing, e.g. directories that will be created or
// cloned lazily.
func (c *Config) Validate() (warnings []string, err error) {
	if c.GitHub.Owner == "" {
		return nil, fmt.Errorf("github.owner must not be empty")
	}
	if c.GitHub.Repo == "" {
		return nil, fmt.Errorf("github.repo must not be empty")
	}
	if c.GitHub.TokenEnv == "" {
		return nil, fmt.Errorf("github.token_env must not be empty")
	}
	if token := os.Getenv(c.GitHub.TokenEnv); token == "" {
		return nil, fmt.Errorf(
			"GitHub token not found or empty in environment variable %q; set it with: export %s=<your-token>",
			c.GitHub.TokenEnv, c.GitHub.TokenEnv,
		)
	}

	labels := []string{
		c.Labels.Ready, c.Labels.Provisioning, c.Labels.Waiting,
		c.Labels.Working, c.Labels.Done, c.Labels.Finished,
	}
	for i, l1 := range labels {
		for _, l2 := range labels[i+1:] {
			if l1 == l2 {
				return warnings, fmt.Errorf("label conflict: %q is used for multiple states", l1)
			}
		}
	}

	if c.Prompts.NewIssue == "" {
		return warnings, fmt.Errorf("prompts.new_issue must not be empty")
	}
	if _, err := os.Stat(c.Prompts.Dir); err != nil {
		return warnings, fmt.Errorf("prompts directory does not exist: %s", c.Prompts.Dir)
	}
	newIssuePath := filepath.Join(c.Prompts.Dir, c.Prompts.NewIssue)
	if _, err := os.Stat(newIssuePath); err != nil {
		return warnings, fmt.Errorf("prompt file does not exist: %s", newIssuePath)
	}

	if c.Watch.PollIntervalSecs == 0 {
		return warnings, fmt.Errorf("watch.poll_interval_secs must be greater than 0")
	}

	if _, err := os.Stat(c.Paths.RepoDir); err != nil {
		warnings = append(warnings, fmt.Sprintf("repo directory does not exist: %s (it will be cloned when needed)", c.Paths.RepoDir))
	}
	if _, err := os.Stat(c.Paths.WorktreeBase); err != nil {
		warnings = append(warnings, fmt.Sprintf("worktree base directory does not exist: %s (it will be created when needed)", c.Paths.WorktreeBase))
	}

	return warnings, nil
}

// LabelFor returns the configured label string for a managed state. It and
// StateForLabel are mutual inverses on the six managed states (P2).
func (c *Config) LabelFor(s state.PlebState) string {
	switch s {
	case state.Ready:
		return c.Labels.Ready
	case state.Provisioning:
		return c.Labels.Provisioning
	case state.Waiting:
		return c.Labels.Waiting
	case state.Working:
		return c.Labels.Working
	case state.Done:
		return c.Labels.Done
	case state.Finished:
		return c.Labels.Finished
	default:
		return ""
	}
}

// StateForLabel returns the managed state for a label string, or
// (state.None, false) if the label isn't one of the six configured ones.
func (c *Config) StateForLabel(label string) (state.PlebState, bool) {
	switch label {
	case c.Labels.Ready:
		return state.Ready, true
	case c.Labels.Provisioning:
		return state.Provisioning, true
	case c.Labels.Waiting:
		return state.Waiting, true
	case c.Labels.Working:
		return state.Working, true
	case c.Labels.Done:
		return state.Done, true
	case c.Labels.Finished:
		return state.Finished, true
	default:
		return state.None, false
	}
}
