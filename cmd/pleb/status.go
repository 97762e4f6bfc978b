package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pleb/internal/daemonutil"
)

var statusCmd = &cobra.Command{
	Use:   "status [issue-number]",
	Short: "Print an issue's pleb state, or the daemon's liveness and managed issues",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := buildDeps(cfg, nil)
	ctx := context.Background()

	if len(args) == 1 {
		number, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid issue number %q: %w", args[0], err)
		}
		issue, err := d.Forge.Issue(ctx, number)
		if err != nil {
			return fmt.Errorf("fetch issue #%d: %w", number, err)
		}
		current, ok := currentPlebState(cfg, issue.Labels)
		fmt.Printf("issue #%d: %s\n", issue.Number, issue.Title)
		if ok {
			fmt.Printf("state: %s\n", current)
		} else {
			fmt.Println("state: not managed")
		}
		fmt.Printf("url: %s\n", issue.URL)
		return nil
	}

	pidPath, err := cfg.PIDFile()
	if err != nil {
		return err
	}
	pf := daemonutil.NewPIDFile(pidPath)
	pid, alive, err := pf.Read()
	switch {
	case err != nil:
		fmt.Println(dimStyle.Render("daemon is not running (no pid file)"))
	case !alive:
		fmt.Println(warnStyle.Render(fmt.Sprintf("daemon is not running (stale pid file, last pid %d)", pid)))
	default:
		uptime := "unknown"
		if mtime, err := pf.ModTime(); err == nil {
			uptime = time.Since(mtime).Round(time.Second).String()
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("daemon running (pid %d, uptime %s)", pid, uptime)))
	}

	numbers, err := d.Tmux.ListWindows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	if len(numbers) == 0 {
		fmt.Println(dimStyle.Render("no managed issues"))
		return nil
	}
	fmt.Println(titleStyle.Render("managed issues:"))
	for _, n := range numbers {
		fmt.Printf("  issue #%d\n", n)
	}
	return nil
}
