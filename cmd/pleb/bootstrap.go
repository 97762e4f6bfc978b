package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"pleb/internal/agent"
	"pleb/internal/config"
	"pleb/internal/forge"
	"pleb/internal/media"
	"pleb/internal/orchestrator"
	"pleb/internal/state"
	"pleb/internal/tmux"
	"pleb/internal/worktree"
)

// loadConfig discovers and validates pleb.toml, printing any non-fatal
// warnings to stderr.
func loadConfig() (*config.Config, error) {
	cfg, path, location, err := config.FindAndLoad(configFileName)
	if err != nil {
		return nil, err
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration (%s, found in %s): %w", path, location, err)
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w))
	}
	return cfg, nil
}

// deps bundles the adapters every daemon and most administrative
// commands need, constructed leaf-first from a validated config.
type deps struct {
	Config   *config.Config
	Forge    *forge.Client
	Worktree *worktree.Manager
	Tmux     *tmux.Manager
	Agent    *agent.Runner
	Logger   *slog.Logger
}

// buildDeps wires the adapters for cfg. logger is nil for administrative
// commands and the watch loop's logger for `pleb watch`.
func buildDeps(cfg *config.Config, logger *slog.Logger) *deps {
	f := forge.New(cfg.GitHub.Owner, cfg.GitHub.Repo)
	wt := worktree.New(cfg.Paths.RepoDir, cfg.Paths.WorktreeBase)
	tm := tmux.New(cfg.Tmux.SessionName).WithEnv("PLEB_SOCKET", mustSocketPath(cfg))
	ar := agent.New(cfg.Claude.Command, cfg.Claude.Args, tm)
	return &deps{Config: cfg, Forge: f, Worktree: wt, Tmux: tm, Agent: ar, Logger: logger}
}

func mustSocketPath(cfg *config.Config) string {
	path, err := cfg.SocketFile()
	if err != nil {
		return ""
	}
	return path
}

// newOrchestrator resolves the authenticated actor and assembles the
// Orchestrator driving the watch loop.
func newOrchestrator(ctx context.Context, d *deps) (*orchestrator.Orchestrator, error) {
	actor, err := d.Forge.AuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve authenticated github user: %w", err)
	}
	tracker := state.New(func() int64 { return time.Now().Unix() })
	return orchestrator.New(d.Config, d.Forge, d.Worktree, d.Tmux, d.Agent, tracker, media.NewClient(), d.Logger, actor), nil
}
