package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate active pleb windows",
	RunE:  runList,
}

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attach to the shared tmux session",
	RunE:  runAttach,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := buildDeps(cfg, nil)

	numbers, err := d.Tmux.ListWindows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	if len(numbers) == 0 {
		fmt.Println(dimStyle.Render("no active windows"))
		return nil
	}
	for _, n := range numbers {
		fmt.Printf("issue #%d\n", n)
	}
	return nil
}

func runAttach(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := buildDeps(cfg, nil)

	attachCmdExec := d.Tmux.AttachCmd()

	// Replace the current process image so Ctrl-C and terminal resizing
	// behave exactly as they would for a directly invoked `tmux attach`.
	path, err := exec.LookPath(attachCmdExec.Args[0])
	if err != nil {
		return fmt.Errorf("find tmux executable: %w", err)
	}
	return syscall.Exec(path, attachCmdExec.Args, os.Environ())
}
