package schema

import (
	"fmt"
	"strings"
)

// Violation is a single reason a candidate agent was rejected
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"` // 0 when the violation has no source position
}

func (v Violation) String() string {
	field := v.Field
	if field == "" {
		field = "(frontmatter)"
	}
	if v.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", field, v.Message, v.Line)
	}
	return fmt.Sprintf("%s: %s", field, v.Message)
}

// ValidationError reports every violation found in a candidate agent
type ValidationError struct {
	Path       string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&b, "invalid agent %s: ", e.Path)
	} else {
		b.WriteString("invalid agent: ")
	}
	fmt.Fprintf(&b, "%d violation(s)", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}

// SourcePath returns the file the rejected agent came from
func (e *ValidationError) SourcePath() string {
	return e.Path
}

// Fields returns the violated field paths in report order
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

// violations collects problems in discovery order
type violations []Violation

func (vs *violations) add(field string, line int, format string, args ...any) {
	*vs = append(*vs, Violation{Field: field, Message: fmt.Sprintf(format, args...), Line: line})
}

func (vs *violations) addErr(field string, line int, err error) {
	if err != nil {
		vs.add(field, line, "%s", err.Error())
	}
}

func (vs violations) err(path string) error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Path: path, Violations: []Violation(vs)}
}
