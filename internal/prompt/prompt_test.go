package prompt

import (
	"encoding/json"
	"testing"
)

func sampleContext() IssueContext {
	return IssueContext{
		IssueNumber:  42,
		Title:        "Fix auth bug",
		Body:         "Steps to reproduce...",
		BranchName:   "42-fix-auth-bug_alice_pleb",
		WorktreePath: "/repo/worktrees/42-fix-auth-bug_alice_pleb",
		HTMLURL:      "https://github.com/acme/widgets/issues/42",
		RepoPath:     "/repo",
	}
}

func TestRenderWithAllFieldsPresentSucceeds(t *testing.T) {
	tmpl := "Issue #{{.IssueNumber}}: {{.Title}}\n{{.Body}}\nBranch: {{.BranchName}}\n"
	got, err := Render("new_issue", tmpl, sampleContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Issue #42: Fix auth bug\nSteps to reproduce...\nBranch: 42-fix-auth-bug_alice_pleb\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderFailsOnUnknownField(t *testing.T) {
	tmpl := "{{.NotARealField}}"
	if _, err := Render("broken", tmpl, sampleContext()); err == nil {
		t.Error("expected render error for unknown field")
	}
}

// TestContextJSONRoundtrip exercises P4's "serializes round-trip through
// JSON" requirement on a fully populated context.
func TestContextJSONRoundtrip(t *testing.T) {
	ctx := sampleContext()
	encoded, err := json.Marshal(ctx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded IssueContext
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != ctx {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, ctx)
	}
}
