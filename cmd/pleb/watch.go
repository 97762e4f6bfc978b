package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pleb/internal/daemonutil"
	"pleb/internal/ipc"
)

var watchDaemon bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the orchestrator, polling the issue tracker and dispatching hook events",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "fork into the background with file logging and a PID file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pidPath, err := cfg.PIDFile()
	if err != nil {
		return err
	}
	logPath, err := cfg.LogFile()
	if err != nil {
		return err
	}

	if watchDaemon && !daemonutil.IsDetachedChild() {
		pid, err := daemonutil.Detach(logPath)
		if err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("started daemon (pid %d), logging to %s", pid, logPath)))
		return nil
	}

	effectiveLogPath := ""
	if watchDaemon {
		effectiveLogPath = logPath
	}
	logger, logFile, err := daemonutil.NewLogger(effectiveLogPath)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	pidFile := daemonutil.NewPIDFile(pidPath)
	if err := pidFile.Acquire(); err != nil {
		return err
	}
	defer pidFile.Release()

	socketPath, err := cfg.SocketFile()
	if err != nil {
		return err
	}
	server, err := ipc.NewServer(socketPath)
	if err != nil {
		return fmt.Errorf("start hook socket: %w", err)
	}
	defer server.Close()

	d := buildDeps(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orc, err := newOrchestrator(ctx, d)
	if err != nil {
		return err
	}

	go server.Serve()
	go orc.DispatchHooks(ctx, server.Messages)

	logger.Info("pleb watch started", "owner", cfg.GitHub.Owner, "repo", cfg.GitHub.Repo)
	orc.Run(ctx)
	logger.Info("pleb watch stopped")
	return nil
}
