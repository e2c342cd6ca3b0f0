package loader

import (
	"fmt"
	"strings"

	"github.com/openagents-control/oac/pkg/schema"
)

// LoadError is implemented by every error LoadAgent returns:
// *AgentLoadError, *FrontmatterParseError and *schema.ValidationError.
type LoadError interface {
	error
	SourcePath() string
}

var (
	_ LoadError = (*AgentLoadError)(nil)
	_ LoadError = (*FrontmatterParseError)(nil)
	_ LoadError = (*schema.ValidationError)(nil)
)

// AgentLoadError reports an I/O failure reading an agent file
type AgentLoadError struct {
	Path string
	Err  error
}

func (e *AgentLoadError) Error() string {
	return fmt.Sprintf("failed to load agent %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error
func (e *AgentLoadError) Unwrap() error { return e.Err }

// SourcePath returns the file that could not be read
func (e *AgentLoadError) SourcePath() string { return e.Path }

// FrontmatterParseError reports a document whose frontmatter block is
// missing or malformed.
type FrontmatterParseError struct {
	Path    string
	Line    int    // 1-based line in the document, 0 if unknown
	Snippet string // offending raw text, when available
	Reason  string
	Err     error
}

func (e *FrontmatterParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid frontmatter in %s", e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Snippet != "" {
		fmt.Fprintf(&b, "\n  > %s", e.Snippet)
	}
	return b.String()
}

// Unwrap returns the YAML error, if any
func (e *FrontmatterParseError) Unwrap() error { return e.Err }

// SourcePath returns the file with the malformed frontmatter
func (e *FrontmatterParseError) SourcePath() string { return e.Path }
