package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"pleb/internal/hooks"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Generate or install the Claude Code hook configuration",
}

var hooksGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print the hook configuration as JSON",
	RunE:  runHooksGenerate,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install [path]",
	Short: "Install hook configuration and slash commands into a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHooksInstall,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize pleb.toml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Load, validate, and pretty-print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Copy pleb.example.toml to pleb.toml if one doesn't already exist",
	RunE:  runConfigInit,
}

func init() {
	hooksCmd.AddCommand(hooksGenerateCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runHooksGenerate(cmd *cobra.Command, args []string) error {
	out, err := json.MarshalIndent(hooks.GenerateConfig(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	dest := "."
	if len(args) == 1 {
		dest = args[0]
	}
	if err := hooks.Install(dest); err != nil {
		return fmt.Errorf("install hooks into %s: %w", dest, err)
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("installed hooks and slash commands into %s/.claude", dest)))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	enc := toml.NewEncoder(os.Stdout)
	return enc.Encode(cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configFileName); err == nil {
		fmt.Println(dimStyle.Render(configFileName + " already exists, leaving it untouched"))
		return nil
	}
	example := "pleb.example.toml"
	if _, err := os.Stat(example); err != nil {
		return fmt.Errorf("%s not found; nothing to initialize from", example)
	}
	if err := copyFile(example, configFileName); err != nil {
		return fmt.Errorf("copy %s to %s: %w", example, configFileName, err)
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("created %s from %s", configFileName, example)))
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil && filepath.Dir(dest) != "." {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
