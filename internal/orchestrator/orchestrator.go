// Package orchestrator drives the periodic provisioning/merge-detection
// cycle and dispatches hook IPC messages against the state tracker. It
// wires together every other internal package without being wired back
// into any of them, keeping the dependency graph acyclic.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"pleb/internal/agent"
	"pleb/internal/config"
	"pleb/internal/forge"
	"pleb/internal/hooks"
	"pleb/internal/ipc"
	"pleb/internal/media"
	"pleb/internal/prompt"
	"pleb/internal/state"
	"pleb/internal/tmux"
	"pleb/internal/worktree"
)

// provisionHookDelay separates successive on_provision keystrokes so
// each command has a moment to start before the next is sent.
const provisionHookDelay = 100 * time.Millisecond

// ForgeClient is the subset of forge.Client's behavior Orchestrator
// depends on, narrowed to an interface (the same testability seam
// media.HTTPClient uses) so hook dispatch and sweep logic can be tested
// without shelling out to gh. *forge.Client satisfies it.
type ForgeClient interface {
	IssuesWithLabel(ctx context.Context, label string) ([]forge.Issue, error)
	ReplaceLabel(ctx context.Context, number uint64, from, to string) error
	IssueBodyHTML(ctx context.Context, number uint64) (string, error)
	CheckPRMerged(ctx context.Context, number uint64) (merged bool, ok bool)
}

// Orchestrator owns the adapters for one repository and drives both the
// periodic sweep cycle and hook-driven state transitions against them.
type Orchestrator struct {
	Config   *config.Config
	Forge    ForgeClient
	Worktree *worktree.Manager
	Tmux     *tmux.Manager
	Agent    *agent.Runner
	Tracker  *state.Tracker
	Media    media.HTTPClient
	Logger   *slog.Logger

	// actor is the authenticated GitHub username embedded in branch
	// names. It is resolved once at startup.
	actor string

	skipLogMu sync.Mutex
	skipLog   map[uint64]struct{}
}

// New constructs an Orchestrator from its adapters. actor is the
// authenticated username used in branch names.
func New(cfg *config.Config, f ForgeClient, wt *worktree.Manager, tm *tmux.Manager, ar *agent.Runner, tr *state.Tracker, mediaClient media.HTTPClient, logger *slog.Logger, actor string) *Orchestrator {
	return &Orchestrator{
		Config:   cfg,
		Forge:    f,
		Worktree: wt,
		Tmux:     tm,
		Agent:    ar,
		Tracker:  tr,
		Media:    mediaClient,
		Logger:   logger,
		actor:    actor,
		skipLog:  make(map[uint64]struct{}),
	}
}

// Run drives the periodic cycle until ctx is canceled. The loop only
// checks for cancellation between cycles, so a single in-flight cycle
// always completes.
func (o *Orchestrator) Run(ctx context.Context) {
	interval := time.Duration(o.Config.Watch.PollIntervalSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.Cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			o.Logger.Info("orchestrator shutting down")
			return
		case <-ticker.C:
			o.Cycle(ctx)
		}
	}
}

// DispatchHooks reads hook messages from msgs and applies them until
// msgs is closed or ctx is canceled. It is meant to run on its own
// goroutine alongside Run, fed by an ipc.Server's Messages channel.
func (o *Orchestrator) DispatchHooks(ctx context.Context, msgs <-chan ipc.HookMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			o.HandleHookMessage(ctx, msg)
		}
	}
}

// Cycle runs Sweep A followed by Sweep B. The two sweeps never run
// concurrently with each other within one cycle, though both may run
// concurrently with hook handling on other goroutines.
func (o *Orchestrator) Cycle(ctx context.Context) {
	o.sweepA(ctx)
	o.sweepB(ctx)
}

// sweepA fetches ready issues and provisions any that aren't already
// tracked, logging a deduplicated skip message for the rest.
func (o *Orchestrator) sweepA(ctx context.Context) {
	issues, err := o.Forge.IssuesWithLabel(ctx, o.Config.Labels.Ready)
	if err != nil {
		o.Logger.Warn("listing ready issues", "error", err)
		return
	}

	ready := make(map[uint64]struct{}, len(issues))
	processed := 0
	for _, issue := range issues {
		ready[issue.Number] = struct{}{}
		if _, tracked := o.Tracker.Get(issue.Number); tracked {
			o.logSkipOnce(issue.Number)
			continue
		}
		o.clearSkipLog(issue.Number)
		if err := o.provisionIssue(ctx, issue); err != nil {
			o.Logger.Warn("provisioning issue failed", "issue", issue.Number, "error", err)
			continue
		}
		processed++
	}
	o.pruneSkipLog(ready)

	if processed > 0 {
		o.Logger.Info("provisioned new issues", "count", processed)
	}
}

func (o *Orchestrator) logSkipOnce(number uint64) {
	o.skipLogMu.Lock()
	defer o.skipLogMu.Unlock()
	if _, logged := o.skipLog[number]; logged {
		return
	}
	o.skipLog[number] = struct{}{}
	o.Logger.Debug("issue already has a window, skipping", "issue", number)
}

func (o *Orchestrator) clearSkipLog(number uint64) {
	o.skipLogMu.Lock()
	defer o.skipLogMu.Unlock()
	delete(o.skipLog, number)
}

// pruneSkipLog drops dedup entries for issues that dropped out of the
// ready set, so a re-added issue is logged again rather than silently
// suppressed forever.
func (o *Orchestrator) pruneSkipLog(ready map[uint64]struct{}) {
	o.skipLogMu.Lock()
	defer o.skipLogMu.Unlock()
	for number := range o.skipLog {
		if _, stillReady := ready[number]; !stillReady {
			delete(o.skipLog, number)
		}
	}
}

// provisionIssue runs the full provisioning pipeline, steps a-j, for a
// single ready issue. A failure at any step is returned and logged by the
// caller; it never stops the daemon. Only a failed claim (a) leaves the
// Ready label in place for the next cycle to retry. A failure after the
// claim is not rolled back: the issue keeps its Provisioning label and
// whatever artifacts were already created, and is not picked up again
// automatically.
func (o *Orchestrator) provisionIssue(ctx context.Context, issue forge.Issue) error {
	o.Logger.Info("processing issue", "issue", issue.Number, "title", issue.Title)

	// a. claim the issue.
	if err := o.Forge.ReplaceLabel(ctx, issue.Number, o.Config.Labels.Ready, o.Config.Labels.Provisioning); err != nil {
		return fmt.Errorf("claim issue #%d: %w", issue.Number, err)
	}

	branchName := BranchName(issue.Number, issue.Title, o.actor, o.Config.Branch.Suffix)

	// b. create worktree (idempotent).
	worktreePath, err := o.Worktree.Create(issue.Number, branchName, branchName)
	if err != nil {
		return fmt.Errorf("create worktree for issue #%d: %w", issue.Number, err)
	}

	copyPlebTOMLIntoWorktree(worktreePath, o.Logger)

	// c. ensure session; create window.
	if err := o.Tmux.EnsureSession(); err != nil {
		return fmt.Errorf("ensure tmux session: %w", err)
	}
	if err := o.Tmux.CreateWindow(issue.Number, worktreePath); err != nil {
		return fmt.Errorf("create window for issue #%d: %w", issue.Number, err)
	}
	windowName := fmt.Sprintf("issue-%d", issue.Number)

	// d. insert tracker record.
	o.Tracker.Insert(issue.Number, state.Provisioning, worktreePath, windowName, branchName)

	// e. download and localize media.
	daemonDir, err := o.Config.DaemonDir()
	if err != nil {
		return fmt.Errorf("determine daemon directory: %w", err)
	}
	issueDir := filepath.Join(daemonDir, strconv.FormatUint(issue.Number, 10))
	if err := os.MkdirAll(issueDir, 0755); err != nil {
		return fmt.Errorf("create issue directory %s: %w", issueDir, err)
	}

	bodyHTML, err := o.Forge.IssueBodyHTML(ctx, issue.Number)
	if err != nil {
		o.Logger.Warn("fetching issue body html failed, media may not download", "issue", issue.Number, "error", err)
		bodyHTML = ""
	}
	processedBody, warnings := media.ProcessBodyWithHTML(o.Media, issue.Body, bodyHTML, issueDir)
	for _, w := range warnings {
		o.Logger.Warn("media processing warning", "issue", issue.Number, "warning", w)
	}

	// f. render prompt template to a string. The issue directory holds only
	// downloaded media; Agent.Invoke writes the rendered prompt to
	// /tmp/pleb-prompt-{n}.md at step (i).
	promptCtx := prompt.IssueContext{
		IssueNumber:  issue.Number,
		Title:        issue.Title,
		Body:         processedBody,
		BranchName:   branchName,
		WorktreePath: worktreePath,
		HTMLURL:      issue.URL,
		RepoPath:     o.Config.Paths.RepoDir,
	}
	promptPath := filepath.Join(o.Config.Prompts.Dir, o.Config.Prompts.NewIssue)
	rendered, err := prompt.RenderFile(promptPath, promptCtx)
	if err != nil {
		return fmt.Errorf("render prompt for issue #%d: %w", issue.Number, err)
	}

	// g. install hook configuration and slash commands into the worktree.
	if err := hooks.Install(worktreePath); err != nil {
		o.Logger.Warn("installing hooks failed", "issue", issue.Number, "error", err)
	}

	// h. execute configured provision-hook commands, spaced apart.
	for _, cmd := range o.Config.Provision.OnProvision {
		o.Logger.Info("running on_provision hook", "issue", issue.Number, "command", cmd)
		if err := o.Tmux.SendKeys(issue.Number, cmd); err != nil {
			o.Logger.Warn("on_provision hook failed", "issue", issue.Number, "command", cmd, "error", err)
		}
		time.Sleep(provisionHookDelay)
	}

	// i. launch the coding agent.
	if err := o.Agent.Invoke(issue.Number, rendered); err != nil {
		return fmt.Errorf("invoke agent for issue #%d: %w", issue.Number, err)
	}

	// j. transition label and tracker.
	if err := o.Forge.ReplaceLabel(ctx, issue.Number, o.Config.Labels.Provisioning, o.Config.Labels.Working); err != nil {
		return fmt.Errorf("transition issue #%d to working: %w", issue.Number, err)
	}
	if err := o.Tracker.Transition(issue.Number, state.Working); err != nil {
		o.Logger.Warn("tracker transition to working failed", "issue", issue.Number, "error", err)
	}
	if newName, err := o.Tmux.RenameWindow(issue.Number, windowName, "working"); err != nil {
		o.Logger.Warn("renaming window failed", "issue", issue.Number, "error", err)
	} else {
		o.Tracker.SetWindowName(issue.Number, newName)
	}

	o.Logger.Info("successfully provisioned issue", "issue", issue.Number, "title", issue.Title)
	return nil
}

// copyPlebTOMLIntoWorktree copies a pleb.toml from the current directory
// into the worktree, if one is present. The file may be gitignored (it
// often carries environment-specific absolute paths), so it isn't
// guaranteed to already exist in the checkout.
func copyPlebTOMLIntoWorktree(worktreePath string, logger *slog.Logger) {
	src := "pleb.toml"
	if _, err := os.Stat(src); err != nil {
		return
	}
	content, err := os.ReadFile(src)
	if err != nil {
		logger.Warn("reading pleb.toml for worktree copy failed", "error", err)
		return
	}
	dest := filepath.Join(worktreePath, "pleb.toml")
	if err := os.WriteFile(dest, content, 0644); err != nil {
		logger.Warn("copying pleb.toml into worktree failed", "worktree", worktreePath, "error", err)
		return
	}
	logger.Debug("copied pleb.toml into worktree", "worktree", worktreePath)
}

// sweepB checks every issue in a non-terminal, post-provisioning state
// for a merged pull request and transitions it to Finished when found.
func (o *Orchestrator) sweepB(ctx context.Context) {
	for _, ti := range o.Tracker.List() {
		if ti.State != state.Working && ti.State != state.Waiting && ti.State != state.Done {
			continue
		}
		merged, ok := o.Forge.CheckPRMerged(ctx, ti.IssueNumber)
		if !ok {
			o.Logger.Warn("checking pr merge status failed", "issue", ti.IssueNumber)
			continue
		}
		if !merged {
			continue
		}

		if err := o.Forge.ReplaceLabel(ctx, ti.IssueNumber, o.Config.LabelFor(ti.State), o.Config.Labels.Finished); err != nil {
			o.Logger.Warn("label update to finished failed", "issue", ti.IssueNumber, "error", err)
			continue
		}
		if err := o.Tracker.Transition(ti.IssueNumber, state.Finished); err != nil {
			o.Logger.Warn("tracker transition to finished failed", "issue", ti.IssueNumber, "error", err)
			continue
		}
		newName, err := o.Tmux.RenameWindow(ti.IssueNumber, ti.WindowName, "finished")
		if err != nil {
			o.Logger.Warn("renaming finished window failed", "issue", ti.IssueNumber, "error", err)
		} else {
			o.Tracker.SetWindowName(ti.IssueNumber, newName)
		}
		o.Logger.Info("issue finished (pr merged)", "issue", ti.IssueNumber)
	}
}

// HandleHookMessage applies the state transition, if any, implied by a
// hook event, writing it to both the tracker and the issue's labels —
// labels are the externally visible state, so a hook-driven transition
// that only updated the tracker would be invisible outside the daemon.
// PostToolUse only drives a transition when its payload names the
// AskUserQuestion tool; every other unmatched event is logged and
// acknowledged without effect.
func (o *Orchestrator) HandleHookMessage(ctx context.Context, msg ipc.HookMessage) {
	ti, tracked := o.Tracker.Get(msg.IssueNumber)
	if !tracked {
		o.Logger.Debug("hook for untracked issue, discarding", "event", msg.EventName, "issue", msg.IssueNumber)
		return
	}

	var to state.PlebState
	switch msg.EventName {
	case "Stop":
		to = state.Waiting
	case "UserPromptSubmit":
		to = state.Working
	case "PostToolUse":
		// Most PostToolUse events carry no transition. AskUserQuestion is
		// the one exception: it means the agent is blocked on the human
		// and is treated the same as Stop. This is a deliberate enrichment
		// over a bare "no state change" (see DESIGN.md).
		if !payloadIsAskUserQuestion(msg.Payload) {
			o.Logger.Debug("hook event logged, no transition", "event", msg.EventName, "issue", msg.IssueNumber)
			return
		}
		to = state.Waiting
	default:
		o.Logger.Debug("hook event logged, no transition", "event", msg.EventName, "issue", msg.IssueNumber)
		return
	}

	from := ti.State
	if from == to {
		o.Logger.Debug("hook event is a repeat of the current state, no transition", "event", msg.EventName, "issue", msg.IssueNumber, "state", from)
		return
	}
	if !state.CanTransition(from, to) {
		o.Logger.Warn("hook-driven transition rejected, labels untouched", "event", msg.EventName, "issue", msg.IssueNumber, "from", from, "to", to)
		return
	}

	if err := o.Forge.ReplaceLabel(ctx, msg.IssueNumber, o.Config.LabelFor(from), o.Config.LabelFor(to)); err != nil {
		o.Logger.Warn("hook-driven label update failed", "event", msg.EventName, "issue", msg.IssueNumber, "error", err)
	}
	if err := o.Tracker.Transition(msg.IssueNumber, to); err != nil {
		o.Logger.Warn("hook-driven transition failed", "event", msg.EventName, "issue", msg.IssueNumber, "error", err)
		return
	}
	o.Logger.Info("hook-driven transition", "event", msg.EventName, "issue", msg.IssueNumber, "to", to)
}

func payloadIsAskUserQuestion(payload json.RawMessage) bool {
	if len(payload) == 0 {
		return false
	}
	var fields struct {
		ToolName string `json:"tool_name"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false
	}
	return fields.ToolName == "AskUserQuestion"
}
