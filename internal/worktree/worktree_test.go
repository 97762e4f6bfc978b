package worktree

import "testing"

const porcelainSample = `worktree /repo
HEAD abcdef0123456789
branch refs/heads/main

worktree /repo/worktrees/42-fix-auth-bug_alice_pleb
HEAD 1111111111111111
branch refs/heads/42-fix-auth-bug_alice_pleb

worktree /repo/worktrees/detached-checkout
HEAD 2222222222222222
detached
`

func TestParsePorcelain(t *testing.T) {
	got := parsePorcelain(porcelainSample)
	if len(got) != 3 {
		t.Fatalf("expected 3 worktrees, got %d: %+v", len(got), got)
	}
	if got[0].Branch != "main" {
		t.Errorf("expected main, got %q", got[0].Branch)
	}
	if got[1].Path != "/repo/worktrees/42-fix-auth-bug_alice_pleb" {
		t.Errorf("unexpected path: %q", got[1].Path)
	}
	if !got[2].Detached {
		t.Errorf("expected third worktree to be detached")
	}
}

func TestIssueNumberFromPath(t *testing.T) {
	cases := []struct {
		path string
		want uint64
		ok   bool
	}{
		{"/path/worktrees/issue-123", 123, true},
		{"/home/user/worktrees/issue-42/src", 42, true},
		{"issue-456", 456, true},
		{"/path/worktrees/2592-add-invoices-table_user_pleb", 2592, true},
		{"/home/acron/projects/kikin/monorepo-branches/2592-add-invoices-table-to-the_acron0_pleb", 2592, true},
		{"/path/no-issue-here", 0, false},
		{"/path/main", 0, false},
	}
	for _, c := range cases {
		got, ok := IssueNumberFromPath(c.path)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("IssueNumberFromPath(%q) = (%d, %v), want (%d, %v)", c.path, got, ok, c.want, c.ok)
		}
	}
}
