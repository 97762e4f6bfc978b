package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pleb/internal/hooks"
	"pleb/internal/ipc"
)

var ccRunHookCmd = &cobra.Command{
	Use:    "cc-run-hook <event-name>",
	Short:  "Forward a Claude Code hook event to the running daemon",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE:   runCCRunHook,
}

// hookPayload is the shape Claude Code's hook runtime writes to stdin.
// Only cwd is consumed directly; the rest is forwarded opaquely.
type hookPayload struct {
	CWD string `json:"cwd"`
}

func runCCRunHook(cmd *cobra.Command, args []string) error {
	eventName := args[0]
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		// Never let a hook failure surface to the agent's own command.
		logger.Debug("reading hook stdin failed", "error", err)
		return nil
	}

	var payload hookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Debug("parsing hook payload failed", "error", err)
		return nil
	}
	number, ok := hooks.ExtractIssueNumber(payload.CWD)
	if !ok {
		logger.Debug("could not extract issue number from cwd", "cwd", payload.CWD)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Debug("loading config for hook forward failed", "error", err)
		return nil
	}
	socketPath, err := cfg.SocketFile()
	if err != nil {
		logger.Debug("resolving socket path failed", "error", err)
		return nil
	}

	client := ipc.NewClient(socketPath)
	_, err = client.Send(ipc.HookMessage{EventName: eventName, IssueNumber: number, Payload: raw})
	if err != nil {
		// The daemon may simply not be running; never fail the agent's command.
		logger.Debug("forwarding hook event failed", "error", err)
	}
	return nil
}
