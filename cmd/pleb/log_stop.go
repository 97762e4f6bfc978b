package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pleb/internal/daemonutil"
)

var (
	logFollow bool
	logLines  int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Tail the daemon log file",
	RunE:  runLog,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal the daemon to shut down",
	RunE:  runStop,
}

func init() {
	logCmd.Flags().BoolVar(&logFollow, "follow", false, "keep printing new lines as they're written")
	logCmd.Flags().IntVar(&logLines, "lines", 50, "number of trailing lines to print initially")
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logPath, err := cfg.LogFile()
	if err != nil {
		return err
	}

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", logPath, err)
	}
	defer f.Close()

	lines, err := tailLines(f, logLines)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}

	if !logFollow {
		return nil
	}
	return followFile(f)
}

func tailLines(f *os.File, n int) ([]string, error) {
	scanner := bufio.NewScanner(f)
	buf := make([]string, 0, n)
	for scanner.Scan() {
		buf = append(buf, scanner.Text())
		if len(buf) > n {
			buf = buf[1:]
		}
	}
	return buf, scanner.Err()
}

// followFile polls the log file for new content, tolerating rotation-free
// append-only writes from the daemon process.
func followFile(f *os.File) error {
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			fmt.Print(strings.TrimSuffix(line, "\n") + "\n")
		}
		if err == io.EOF {
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pidPath, err := cfg.PIDFile()
	if err != nil {
		return err
	}
	pf := daemonutil.NewPIDFile(pidPath)
	if err := pf.Signal(syscall.SIGINT); err != nil {
		return fmt.Errorf("stop daemon: %w", err)
	}
	fmt.Println(okStyle.Render("sent shutdown signal to daemon"))
	return nil
}
