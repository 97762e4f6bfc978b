// Package worktree manages per-issue git worktrees: idempotent creation
// under a configured base directory, listing via porcelain parsing, and
// removal with best-effort branch cleanup. Adapted from the same
// subprocess-wrapping idiom used for other VCS operations, generalized
// from "one worktree per branch slug" to pleb's issue-keyed naming and
// the registered/exists idempotency matrix the orchestrator depends on.
package worktree

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Manager creates and inspects worktrees for one repository.
type Manager struct {
	RepoDir      string // the shared clone all worktrees branch from
	WorktreeBase string // directory under which worktrees are created
}

// New constructs a Manager for the given repo and worktree base directory.
func New(repoDir, worktreeBase string) *Manager {
	return &Manager{RepoDir: repoDir, WorktreeBase: worktreeBase}
}

func (m *Manager) git(args ...string) *exec.Cmd {
	full := append([]string{"-C", m.RepoDir}, args...)
	return exec.Command("git", full...)
}

// DefaultBranch returns the shared clone's currently checked-out branch,
// which is always the repository's default branch since nothing else
// touches the shared clone. Falls back to "main" if it cannot be
// determined.
func (m *Manager) DefaultBranch() string {
	out, err := m.git("rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "main"
	}
	branch := strings.TrimSpace(string(out))
	if branch == "" || branch == "HEAD" {
		return "main"
	}
	return branch
}

// isRegistered reports whether git's worktree tracking already knows
// about a worktree directory prefixed by this issue number.
func (m *Manager) isRegistered(number uint64) (bool, error) {
	worktrees, err := m.List()
	if err != nil {
		return false, err
	}
	prefix := strconv.FormatUint(number, 10) + "-"
	for _, w := range worktrees {
		if strings.HasPrefix(filepath.Base(w.Path), prefix) {
			return true, nil
		}
	}
	return false, nil
}

// Path returns the worktree directory for an issue, if one exists on
// disk, by scanning WorktreeBase for a "{number}-"-prefixed entry.
func (m *Manager) Path(number uint64) (string, bool) {
	prefix := strconv.FormatUint(number, 10) + "-"
	entries, err := os.ReadDir(m.WorktreeBase)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(m.WorktreeBase, e.Name()), true
		}
	}
	return "", false
}

// Create is idempotent: if a worktree for this issue number already
// exists (whether or not git's tracking agrees with the filesystem), it
// reconciles the four possible registered/exists states before creating
// anything, then returns the worktree's path. worktreeName is the
// directory name to create (e.g. "42-fix-auth-bug_alice_pleb"); branch is
// the branch to create and check out.
func (m *Manager) Create(number uint64, branch, worktreeName string) (string, error) {
	path := filepath.Join(m.WorktreeBase, worktreeName)

	registered, err := m.isRegistered(number)
	if err != nil {
		return "", fmt.Errorf("check worktree registration: %w", err)
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	switch {
	case registered && exists:
		return path, nil
	case registered && !exists:
		// Stale git tracking: the directory is gone but git still thinks
		// it's a live worktree. Clean it up before recreating.
		m.git("worktree", "remove", path, "--force").Run()
		m.git("worktree", "prune").Run()
	case !registered && exists:
		// Orphaned directory with no git tracking at all.
		if err := os.RemoveAll(path); err != nil {
			return "", fmt.Errorf("remove orphaned worktree directory %s: %w", path, err)
		}
	}

	defaultBranch := m.DefaultBranch()
	branchOut, err := m.git("branch", branch, defaultBranch).CombinedOutput()
	if err != nil && !strings.Contains(string(branchOut), "already exists") {
		return "", fmt.Errorf("create branch %q from %q: %s", branch, defaultBranch, strings.TrimSpace(string(branchOut)))
	}

	if err := os.MkdirAll(m.WorktreeBase, 0755); err != nil {
		return "", fmt.Errorf("create worktree base directory: %w", err)
	}

	addOut, err := m.git("worktree", "add", path, branch).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("create worktree for issue #%d: %s", number, strings.TrimSpace(string(addOut)))
	}

	return path, nil
}

// Remove deletes the worktree directory for an issue and best-effort
// force-deletes its branch. A missing worktree is success, not error.
func (m *Manager) Remove(number uint64) error {
	path, ok := m.Path(number)
	if !ok {
		return nil
	}
	branch := filepath.Base(path)

	out, err := m.git("worktree", "remove", path, "--force").CombinedOutput()
	if err != nil {
		return fmt.Errorf("remove worktree for issue #%d: %s", number, strings.TrimSpace(string(out)))
	}

	// Best-effort: a not-fully-merged branch fails here, which is fine.
	m.git("branch", "-D", branch).Run()
	return nil
}

// Worktree is one entry from `git worktree list --porcelain`.
type Worktree struct {
	Path     string
	Branch   string
	Detached bool
}

// List parses `git worktree list --porcelain` into structured entries.
func (m *Manager) List() ([]Worktree, error) {
	out, err := m.git("worktree", "list", "--porcelain").Output()
	if err != nil {
		return nil, fmt.Errorf("git worktree list: %w", err)
	}
	return parsePorcelain(string(out)), nil
}

func parsePorcelain(raw string) []Worktree {
	var result []Worktree
	for _, block := range strings.Split(strings.TrimSpace(raw), "\n\n") {
		w := parseBlock(strings.TrimSpace(block))
		if w != nil {
			result = append(result, *w)
		}
	}
	return result
}

func parseBlock(block string) *Worktree {
	var w Worktree
	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			w.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			w.Branch = strings.TrimPrefix(line, "branch refs/heads/")
		case line == "detached":
			w.Detached = true
		}
	}
	if w.Path == "" {
		return nil
	}
	return &w
}

// IssueNumberFromPath extracts the leading numeric prefix from a worktree
// directory name, supporting both the legacy "issue-{n}" form and the
// current "{n}-{slug}_{user}_{suffix}" form.
func IssueNumberFromPath(path string) (uint64, bool) {
	for _, component := range strings.Split(path, string(filepath.Separator)) {
		if rest, ok := strings.CutPrefix(component, "issue-"); ok {
			if n, err := strconv.ParseUint(rest, 10, 64); err == nil {
				return n, true
			}
		}
		if dash := strings.Index(component, "-"); dash > 0 {
			if n, err := strconv.ParseUint(component[:dash], 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// EnsureRepo clones the repository via SSH into path if it isn't already
// a git checkout.
func EnsureRepo(owner, repo, path string) error {
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent directory for repo clone: %w", err)
	}
	url := fmt.Sprintf("git@github.com:%s/%s.git", owner, repo)
	out, err := exec.Command("git", "clone", url, path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("clone %s: %s", url, strings.TrimSpace(string(out)))
	}
	return nil
}
