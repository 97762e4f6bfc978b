// Package prompt renders prompt and provision-hook templates against an
// IssueContext in strict mode: referencing a variable absent from the
// context fails the render rather than silently emitting an empty
// string. text/template already fails closed on an unknown struct field,
// which is exactly the strictness the original Handlebars renderer
// opted into explicitly.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// IssueContext carries the variables available to prompt and
// provision-hook templates. Immutable after construction.
type IssueContext struct {
	IssueNumber  uint64
	Title        string
	Body         string // post-media-rewrite
	BranchName   string
	WorktreePath string
	HTMLURL      string
	// RepoPath is the shared clone's path, distinct from WorktreePath.
	// Not one of the six canonical prompt variables, but available to
	// templates that want to reference the repository root directly
	// (e.g. a provision hook that runs a script living in the main repo).
	RepoPath string
}

// Render parses and executes a template string against ctx in strict
// mode: an unresolved field reference is a render error, not an empty
// substitution. Provision-hook command strings are rendered through the
// same path as prompt bodies, since they reference the same IssueContext
// variables (e.g. a hook that runs `some-script {{.WorktreePath}}`).
func Render(name, tmplText string, ctx IssueContext) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf strings.Builder
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderFile reads the template file at path and renders it against ctx.
func RenderFile(path string, ctx IssueContext) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template file %s: %w", path, err)
	}
	return Render(path, string(content), ctx)
}
