package loader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openagents-control/oac/pkg/schema"
)

const (
	delimiter = "---"
	bom       = "\ufeff"
)

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// document is an agent file split at its frontmatter delimiters
type document struct {
	frontmatter string
	body        string
}

// nextLine returns the first line of s without its terminator and the
// number of bytes consumed, terminator included.
func nextLine(s string) (string, int) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], i + 1
	}
	return s, len(s)
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == delimiter
}

// split separates the frontmatter block from the body. The body is returned
// verbatim, starting right after the closing delimiter line.
func split(path, content string) (*document, error) {
	content = strings.TrimPrefix(content, bom)

	first, n := nextLine(content)
	if !isDelimiter(first) {
		return nil, &FrontmatterParseError{
			Path:    path,
			Line:    1,
			Snippet: snippet(first),
			Reason:  "document does not start with a frontmatter block (expected '---')",
		}
	}

	rest := content[n:]
	pos := 0
	for pos < len(rest) {
		line, consumed := nextLine(rest[pos:])
		if isDelimiter(line) {
			return &document{
				frontmatter: rest[:pos],
				body:        rest[pos+consumed:],
			}, nil
		}
		pos += consumed
	}

	return nil, &FrontmatterParseError{
		Path:    path,
		Line:    1,
		Snippet: delimiter,
		Reason:  "frontmatter block is not terminated (missing closing '---')",
	}
}

func snippet(s string) string {
	s = strings.TrimRight(s, "\r")
	const max = 80
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Parse turns the text of an agent document into a validated agent.
// sourcePath is only used for error reporting and OpenAgent.SourcePath.
func Parse(content, sourcePath string) (*schema.OpenAgent, error) {
	doc, err := split(sourcePath, content)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(doc.frontmatter), &node); err != nil {
		return nil, yamlError(sourcePath, doc.frontmatter, err)
	}

	if root := rootOf(&node); root != nil && root.Kind != yaml.MappingNode && !isNullScalar(root) {
		return nil, &FrontmatterParseError{
			Path:    sourcePath,
			Line:    root.Line + 1,
			Snippet: snippet(lineAt(doc.frontmatter, root.Line)),
			Reason:  "frontmatter must be a mapping of keys to values",
		}
	}

	agent, err := schema.Decode(&node, doc.body, sourcePath)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			// node lines are relative to the block, which starts on line 2
			for i := range ve.Violations {
				if ve.Violations[i].Line > 0 {
					ve.Violations[i].Line++
				}
			}
		}
		return nil, err
	}
	return agent, nil
}

func rootOf(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return nil
}

func isNullScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func yamlError(path, block string, err error) *FrontmatterParseError {
	perr := &FrontmatterParseError{
		Path:   path,
		Reason: "malformed YAML",
		Err:    err,
	}
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			perr.Line = line + 1
			perr.Snippet = snippet(lineAt(block, line))
		}
	}
	return perr
}

// lineAt returns the 1-based line n of s, or "" when out of range
func lineAt(s string, n int) string {
	if n < 1 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// SplitFrontmatter separates a leading '---' delimited block from the rest
// of content. When content has no complete block, found is false and body
// is content unchanged.
func SplitFrontmatter(content string) (frontmatter, body string, found bool) {
	doc, err := split("", content)
	if err != nil {
		return "", content, false
	}
	return doc.frontmatter, doc.body, true
}
