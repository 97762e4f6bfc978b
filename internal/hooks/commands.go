package hooks

import (
	"fmt"
	"os"
	"path/filepath"
)

const shipitCommand = `# Ship It

Create a pull request for the current work and mark the issue as done.

## Steps
1. Stage and commit any uncommitted changes with a descriptive message
2. Push the current branch to origin
3. Create a pull request using ` + "`gh pr create`" + `:
   - Title: Use the issue title or branch name
   - Body: Reference the issue number (Closes #XXX)
4. Run: ` + "`pleb transition <issue-number> done`" + `
5. Report the PR URL to the user

## Context
- Working directory: Current worktree (contains issue number in path)
- Branch: Already created by pleb
- Issue number: Extract from current directory path

## Important
- If there are no changes to commit, skip step 1
- If a PR already exists for this branch, report the existing PR instead of creating a new one
- Always transition to the done state after the PR is created or found
`

const abandonCommand = `# Abandon Issue

Give up on the current issue and clean up.

## Steps
1. Extract the issue number from the current directory path (the worktree path contains the issue number)
2. Remove all pleb labels from the issue using:
   ` + "```bash\n   pleb transition <issue-number> none\n   ```" + `
   ("none" is a special state that removes all pleb:* labels)
3. Optionally ask the user whether to delete the worktree and close the tmux window
4. Report that the issue has been abandoned and is no longer managed by pleb

## Context
- The issue remains open on GitHub but carries no pleb labels
- A user can manually re-add the ready label to restart work later
- Worktree cleanup is optional to preserve any useful partial work
`

const statusCommand = `# Pleb Status

Show the current pleb state for this issue.

## Steps
1. Extract the issue number from the current directory path
2. Run: ` + "`pleb status <issue-number>`" + `
3. Display the output to the user

## Output Format
The command shows:
- Issue number and title
- Current pleb state (ready/provisioning/waiting/working/done/finished, or "not managed")
- GitHub issue URL
`

const cleanupCommand = `# Cleanup Issue

Remove the worktree and tmux window for this issue and confirm before doing so.

## Steps
1. Extract the issue number from the current directory path
2. Ask the user to confirm: this destroys the worktree and any uncommitted
   changes inside it. Do not proceed without an explicit yes.
3. Once confirmed, run: ` + "`pleb cleanup <issue-number>`" + ` from outside the worktree
   (the command removes the directory you are currently standing in)
4. Report that the worktree and window have been removed

## Important
- This does not touch GitHub labels. The issue keeps whatever label it had.
- Calling cleanup again on an already-cleaned issue is safe: it is a no-op.
`

// commandFiles maps each slash-command name to its markdown content. The
// first three mirror the commands found with the distilled implementation;
// pleb-cleanup is a supplement matching the destructive, confirmation-gated
// operation the command surface names but the original never shipped.
var commandFiles = map[string]string{
	"pleb-shipit":  shipitCommand,
	"pleb-abandon": abandonCommand,
	"pleb-status":  statusCommand,
	"pleb-cleanup": cleanupCommand,
}

// InstallCommands writes every slash-command file into
// path/.claude/commands/.
func InstallCommands(path string) error {
	dir := filepath.Join(path, ".claude", "commands")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create commands directory: %w", err)
	}
	for name, content := range commandFiles {
		file := filepath.Join(dir, name+".md")
		if err := os.WriteFile(file, []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	return nil
}
