// Package state defines the PlebState lifecycle and the in-memory tracker
// that owns per-issue lifecycle records. The tracker is the sole arbiter of
// whether a transition is legal; it never talks to the issue tracker itself.
package state

import (
	"fmt"
	"sync"
)

// PlebState is one node of the closed six-state lifecycle DAG.
type PlebState string

const (
	Ready        PlebState = "ready"
	Provisioning PlebState = "provisioning"
	Waiting      PlebState = "waiting"
	Working      PlebState = "working"
	Done         PlebState = "done"
	Finished     PlebState = "finished"
)

// None is not a PlebState; it represents "carries no managed label" and is
// used only as the sentinel argument to administrative transitions.
const None PlebState = ""

// All lists every managed state in lifecycle order, used wherever every
// managed label has to be visited (e.g. `transition none` and `restore`).
var All = []PlebState{Ready, Provisioning, Waiting, Working, Done, Finished}

// edges is the directed adjacency list of the state DAG from spec §3.
// Finished has no outgoing edges: it is the only terminal state.
var edges = map[PlebState][]PlebState{
	Ready:        {Provisioning},
	Provisioning: {Working},
	Waiting:      {Working, Done, Finished},
	Working:      {Waiting, Done, Finished},
	Done:         {Finished},
	Finished:     {},
}

// CanTransition reports whether the directed edge from -> to exists in the
// lifecycle DAG. A transition to None (unmanage) is always legal from any
// managed state; it models the administrative "abandon" edge.
func CanTransition(from, to PlebState) bool {
	if to == None {
		return true
	}
	for _, candidate := range edges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the given state.
func IsTerminal(s PlebState) bool {
	return s == Finished
}

// TrackedIssue is the tracker's private record of one issue under
// management. It is created on first successful provisioning step,
// mutated on every observed transition, and removed on cleanup.
type TrackedIssue struct {
	IssueNumber      uint64
	WorktreePath     string
	WindowName       string
	BranchName       string
	State            PlebState
	ProvisionedAt    int64 // unix seconds; set when the record is inserted
	LastTransitionAt int64
}

// Tracker is a process-private mapping from issue number to TrackedIssue.
// It does not persist: a restarted daemon starts with an empty tracker.
// The `restore` command rebuilds missing worktrees and windows from the
// issue labels but does not repopulate any tracker.
type Tracker struct {
	mu      sync.Mutex
	issues  map[uint64]*TrackedIssue
	nowFunc func() int64
}

// New constructs an empty tracker. nowFunc supplies the current unix time
// and exists so tests can inject a deterministic clock.
func New(nowFunc func() int64) *Tracker {
	return &Tracker{
		issues:  make(map[uint64]*TrackedIssue),
		nowFunc: nowFunc,
	}
}

// Insert records a new tracked issue at the given state. It overwrites any
// existing record for the same issue number.
func (t *Tracker) Insert(number uint64, initial PlebState, worktreePath, windowName, branchName string) *TrackedIssue {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.nowFunc()
	ti := &TrackedIssue{
		IssueNumber:      number,
		WorktreePath:     worktreePath,
		WindowName:       windowName,
		BranchName:       branchName,
		State:            initial,
		ProvisionedAt:    now,
		LastTransitionAt: now,
	}
	t.issues[number] = ti
	return ti
}

// Get returns a copy of the tracked issue, or (TrackedIssue{}, false) if
// the issue number is not tracked.
func (t *Tracker) Get(number uint64) (TrackedIssue, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ok := t.issues[number]
	if !ok {
		return TrackedIssue{}, false
	}
	return *ti, true
}

// List returns a snapshot of all tracked issues, in no particular order.
func (t *Tracker) List() []TrackedIssue {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TrackedIssue, 0, len(t.issues))
	for _, ti := range t.issues {
		out = append(out, *ti)
	}
	return out
}

// Remove deletes the tracked issue, if present. It is a no-op otherwise.
func (t *Tracker) Remove(number uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.issues, number)
}

// SetWindowName updates the window name recorded for an issue, used after
// a successful rename so future renames target the window's current name
// rather than reconstructing it from the issue number.
func (t *Tracker) SetWindowName(number uint64, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ti, ok := t.issues[number]; ok {
		ti.WindowName = name
	}
}

// Transition validates and applies a state change against the DAG. It
// fails with a descriptive error on an invalid edge or an untracked issue.
func (t *Tracker) Transition(number uint64, to PlebState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ok := t.issues[number]
	if !ok {
		return fmt.Errorf("issue #%d is not tracked", number)
	}
	if !CanTransition(ti.State, to) {
		return fmt.Errorf("invalid transition for issue #%d: %s -> %s", number, ti.State, to)
	}
	ti.State = to
	ti.LastTransitionAt = t.nowFunc()
	return nil
}
