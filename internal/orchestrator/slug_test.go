package orchestrator

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"Fix the login bug!", 30, "fix-the-login-bug"},
		{"  leading and trailing  ", 30, "leading-and-trailing"},
		{"Multiple---hyphens___here", 30, "multiple-hyphens-here"},
		{"A very long issue title that exceeds the limit", 20, "a-very-long-issue"},
		{"", 30, ""},
	}
	for _, c := range cases {
		if got := slugify(c.in, c.maxLen); got != c.want {
			t.Errorf("slugify(%q, %d) = %q, want %q", c.in, c.maxLen, got, c.want)
		}
	}
}

func TestBranchName(t *testing.T) {
	got := BranchName(42, "Fix the login bug!", "alice", "pleb")
	want := "42-fix-the-login-bug_alice_pleb"
	if got != want {
		t.Errorf("BranchName = %q, want %q", got, want)
	}
}
