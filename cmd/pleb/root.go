package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const configFileName = "pleb.toml"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var rootCmd = &cobra.Command{
	Use:           "pleb",
	Short:         "Issue-driven coding agent orchestrator",
	Long:          `pleb watches an issue tracker for a ready label, provisions a git worktree and tmux window per issue, and drives a coding agent through a label-based lifecycle.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(transitionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ccRunHookCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(restoreCmd)
}
