package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pleb/internal/config"
	"pleb/internal/state"
)

var transitionCmd = &cobra.Command{
	Use:   "transition <issue-number> <state|none>",
	Short: "Administratively write an issue's pleb label",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransition,
}

func runTransition(cmd *cobra.Command, args []string) error {
	number, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid issue number %q: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := buildDeps(cfg, nil)
	ctx := context.Background()

	issue, err := d.Forge.Issue(ctx, number)
	if err != nil {
		return fmt.Errorf("fetch issue #%d: %w", number, err)
	}
	current, hasCurrent := currentPlebState(cfg, issue.Labels)

	if strings.EqualFold(args[1], "none") {
		for _, s := range state.All {
			if err := d.Forge.RemoveLabel(ctx, number, cfg.LabelFor(s)); err != nil {
				return fmt.Errorf("remove label for state %s: %w", s, err)
			}
		}
		fmt.Printf("issue #%d is no longer managed by pleb (all pleb labels removed)\n", number)
		return nil
	}

	target, err := parseState(args[1])
	if err != nil {
		return err
	}
	if hasCurrent && !state.CanTransition(current, target) {
		return fmt.Errorf("invalid transition for issue #%d: %s -> %s", number, current, target)
	}

	if hasCurrent {
		if err := d.Forge.ReplaceLabel(ctx, number, cfg.LabelFor(current), cfg.LabelFor(target)); err != nil {
			return fmt.Errorf("transition issue #%d: %w", number, err)
		}
	} else {
		if err := d.Forge.AddLabel(ctx, number, cfg.LabelFor(target)); err != nil {
			return fmt.Errorf("label issue #%d: %w", number, err)
		}
	}

	fmt.Printf("issue #%d transitioned to %s\n", number, target)
	return nil
}

func parseState(s string) (state.PlebState, error) {
	switch strings.ToLower(s) {
	case "ready":
		return state.Ready, nil
	case "provisioning":
		return state.Provisioning, nil
	case "waiting":
		return state.Waiting, nil
	case "working":
		return state.Working, nil
	case "done":
		return state.Done, nil
	case "finished":
		return state.Finished, nil
	default:
		return state.None, fmt.Errorf("unknown state %q", s)
	}
}

func currentPlebState(cfg *config.Config, labels []string) (state.PlebState, bool) {
	for _, l := range labels {
		if s, ok := cfg.StateForLabel(l); ok {
			return s, true
		}
	}
	return state.None, false
}
