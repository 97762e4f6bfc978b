// Package agent invokes the coding agent inside a tmux window and
// inspects whether it is still running. The prompt is delivered via a
// temp-file redirect rather than a shell argument, so arbitrarily
// formatted issue bodies never need shell-escaping.
package agent

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"pleb/internal/tmux"
)

// Runner drives one configured coding-agent command inside pleb's shared
// tmux session.
type Runner struct {
	Command string
	Args    []string
	Tmux    *tmux.Manager
}

// New constructs a Runner for the given command/args, using tm to talk
// to the window.
func New(command string, args []string, tm *tmux.Manager) *Runner {
	return &Runner{Command: command, Args: args, Tmux: tm}
}

// promptFilePath returns the temp-file path the prompt for an issue is
// written to before invocation.
func promptFilePath(issueNumber uint64) string {
	return fmt.Sprintf("/tmp/pleb-prompt-%d.md", issueNumber)
}

// Invoke writes prompt to a temp file and sends the agent's launch
// command, redirecting stdin from that file, into the issue's window.
// The prompt text itself never touches the shell's argument parsing.
func (r *Runner) Invoke(issueNumber uint64, prompt string) error {
	tempFile := promptFilePath(issueNumber)
	if err := os.WriteFile(tempFile, []byte(prompt), 0644); err != nil {
		return fmt.Errorf("write prompt to temp file %s: %w", tempFile, err)
	}

	parts := append([]string{r.Command}, r.Args...)
	parts = append(parts, "--print", "<", tempFile)
	fullCommand := strings.Join(parts, " ")

	if err := r.Tmux.SendKeys(issueNumber, fullCommand); err != nil {
		return fmt.Errorf("invoke agent for issue #%d: %w", issueNumber, err)
	}
	return nil
}

// IsRunning reports whether the agent's command is the foreground
// process in the issue's pane.
func (r *Runner) IsRunning(issueNumber uint64) bool {
	target := fmt.Sprintf("%s:issue-%d", r.Tmux.SessionName, issueNumber)
	out, err := exec.Command("tmux", "list-panes", "-t", target, "-F", "#{pane_current_command}").Output()
	if err != nil {
		return false
	}
	current := strings.ToLower(strings.TrimSpace(string(out)))
	return strings.Contains(current, strings.ToLower(baseName(r.Command)))
}

// IsIdle reports whether the issue's window exists but the agent is not
// the foreground process in it, signaling it has finished and returned
// control to the shell.
func (r *Runner) IsIdle(issueNumber uint64) bool {
	exists, err := r.Tmux.WindowExists(issueNumber)
	if err != nil || !exists {
		return false
	}
	return !r.IsRunning(issueNumber)
}

func baseName(command string) string {
	if idx := strings.LastIndexByte(command, '/'); idx >= 0 {
		return command[idx+1:]
	}
	return command
}
