package orchestrator

import (
	"fmt"
	"strings"
)

// BranchName derives the branch an issue provisions into from its
// number, title, the authenticated actor, and the configured branch
// suffix. Exported so administrative commands (e.g. restore) can
// recompute the same branch a provisioning run would have derived,
// without re-running provisioning itself.
func BranchName(issueNumber uint64, title, actor, suffix string) string {
	slug := slugify(title, 30)
	return fmt.Sprintf("%d-%s_%s_%s", issueNumber, slug, actor, suffix)
}

// slugify lowercases s, replaces every non-alphanumeric rune with a
// hyphen, collapses runs of hyphens, trims leading/trailing hyphens, and
// truncates to maxLen without splitting a word.
func slugify(s string, maxLen int) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // trims leading hyphens
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	result := strings.TrimRight(b.String(), "-")
	if len(result) <= maxLen {
		return result
	}
	truncated := result[:maxLen]
	if idx := strings.LastIndexByte(truncated, '-'); idx > 0 {
		return truncated[:idx]
	}
	return truncated
}
