package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pleb/internal/forge"
	"pleb/internal/orchestrator"
	"pleb/internal/state"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <issue-number>",
	Short: "Remove the worktree and tmux window for an issue",
	Long:  "Removes the worktree and tmux window for an issue. Safe to call when either is already absent. Does not touch GitHub labels.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCleanup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Reconstruct missing worktrees and windows for managed issues after a crash",
	Long:  "Fetches issues in any managed state, deduplicated across overlapping labels, and for each missing its window or worktree, reconstructs the provisioning artifacts without reinvoking the agent or altering labels.",
	RunE:  runRestore,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	number, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid issue number %q: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := buildDeps(cfg, nil)

	if err := d.Tmux.KillWindow(number); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("killing window for issue #%d: %v", number, err)))
	}
	if err := d.Worktree.Remove(number); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("removing worktree for issue #%d: %v", number, err)))
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("cleaned up issue #%d", number)))
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := buildDeps(cfg, nil)
	ctx := context.Background()

	actor, err := d.Forge.AuthenticatedUser(ctx)
	if err != nil {
		return fmt.Errorf("resolve authenticated github user: %w", err)
	}

	seen := make(map[uint64]struct{})
	restored := 0
	for _, s := range state.All {
		if s == state.Ready {
			// Ready issues haven't been claimed yet; Sweep A provisions them.
			continue
		}
		issues, err := d.Forge.IssuesWithLabel(ctx, cfg.LabelFor(s))
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("listing issues labeled %s: %v", cfg.LabelFor(s), err)))
			continue
		}
		for _, issue := range issues {
			if _, dup := seen[issue.Number]; dup {
				continue
			}
			seen[issue.Number] = struct{}{}

			if err := restoreIssue(d, issue, actor, cfg.Branch.Suffix); err != nil {
				fmt.Println(warnStyle.Render(fmt.Sprintf("restoring issue #%d: %v", issue.Number, err)))
				continue
			}
			restored++
		}
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("restored infrastructure for %d issue(s)", restored)))
	return nil
}

// restoreIssue recreates a managed issue's worktree and window if either
// is missing, without invoking the agent or writing any labels. The
// branch name is re-derived from the issue exactly as provisioning would
// have derived it, so a fully-missing worktree can be recreated rather
// than only a missing window.
func restoreIssue(d *deps, issue forge.Issue, actor, branchSuffix string) error {
	branchName := orchestrator.BranchName(issue.Number, issue.Title, actor, branchSuffix)

	worktreePath, exists := d.Worktree.Path(issue.Number)
	if !exists {
		path, err := d.Worktree.Create(issue.Number, branchName, branchName)
		if err != nil {
			return fmt.Errorf("recreate worktree: %w", err)
		}
		worktreePath = path
	}

	if err := d.Tmux.EnsureSession(); err != nil {
		return fmt.Errorf("ensure tmux session: %w", err)
	}
	alreadyExists, err := d.Tmux.WindowExists(issue.Number)
	if err != nil {
		return fmt.Errorf("check window existence: %w", err)
	}
	if alreadyExists {
		return nil
	}
	if err := d.Tmux.CreateWindow(issue.Number, worktreePath); err != nil {
		return fmt.Errorf("recreate window: %w", err)
	}
	return nil
}
