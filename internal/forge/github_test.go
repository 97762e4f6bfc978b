package forge

import "testing"

func TestTrimOutput(t *testing.T) {
	short := trimOutput([]byte("  boom  "))
	if short != "boom" {
		t.Errorf("expected trimmed output, got %q", short)
	}

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	got := trimOutput(long)
	if len(got) != 203 {
		t.Errorf("expected truncated output of length 203, got %d", len(got))
	}
}

func TestGhIssueToIssue(t *testing.T) {
	raw := ghIssue{
		Number: 42,
		Title:  "Fix auth bug",
		Body:   "body text",
		URL:    "https://github.com/o/r/issues/42",
	}
	raw.Labels = []struct {
		Name string `json:"name"`
	}{{Name: "pleb:ready"}, {Name: "bug"}}

	issue := raw.toIssue()
	if issue.Number != 42 || issue.Title != "Fix auth bug" {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if len(issue.Labels) != 2 || issue.Labels[0] != "pleb:ready" {
		t.Fatalf("unexpected labels: %v", issue.Labels)
	}
}

func TestRepoArg(t *testing.T) {
	c := New("acme", "widgets")
	if got := c.repoArg(); got != "acme/widgets" {
		t.Errorf("expected acme/widgets, got %q", got)
	}
}

func TestMatchMergedPR(t *testing.T) {
	prs := []ghPR{
		{Number: 1, HeadRefName: "99-unrelated", State: "OPEN"},
		{Number: 2, HeadRefName: "42-fix-auth-bug_alice_pleb", State: "MERGED", MergedAt: "2026-01-01T00:00:00Z"},
	}

	merged, ok := matchMergedPR(prs, 42)
	if !ok || !merged {
		t.Fatalf("expected merged=true ok=true, got merged=%v ok=%v", merged, ok)
	}

	merged, ok = matchMergedPR(prs, 7)
	if ok {
		t.Fatalf("expected no match for issue 7, got merged=%v ok=%v", merged, ok)
	}
	_ = merged
}

func TestMatchMergedPROpenNotMerged(t *testing.T) {
	prs := []ghPR{{Number: 3, HeadRefName: "7-typo-fix_bob_pleb", State: "OPEN"}}
	merged, ok := matchMergedPR(prs, 7)
	if !ok || merged {
		t.Fatalf("expected merged=false ok=true, got merged=%v ok=%v", merged, ok)
	}
}
