package adapters

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	gtext "github.com/yuin/goldmark/text"
	yamlv2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"

	"github.com/openagents-control/oac/pkg/loader"
)

var markdown = goldmark.New(goldmark.WithExtensions(meta.Meta))

// source is an external markdown document with its frontmatter items in
// document order
type source struct {
	items yamlv2.MapSlice
	title string // text of the first level 1 heading
	body  string
}

func parseSource(text string) (*source, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	src := []byte(text)

	pctx := parser.NewContext()
	doc := markdown.Parser().Parse(gtext.NewReader(src), parser.WithContext(pctx))

	items, err := meta.TryGetItems(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "malformed frontmatter")
	}

	s := &source{items: items, body: text}
	if _, body, found := loader.SplitFrontmatter(text); found {
		s.body = body
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			s.title = strings.TrimSpace(inlineText(h, src))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return s, nil
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(inlineText(c, src))
		}
	}
	return b.String()
}

func (s *source) get(key string) (any, bool) {
	for _, item := range s.items {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value, true
		}
	}
	return nil, false
}

// keys returns the top level keys in document order
func (s *source) keys() []string {
	var keys []string
	for _, item := range s.items {
		keys = append(keys, fmt.Sprint(item.Key))
	}
	return keys
}

func (s *source) str(key string) (string, bool) {
	v, ok := s.get(key)
	if !ok || v == nil {
		return "", false
	}
	return scalarString(v), true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// list accepts both a YAML sequence and a comma separated string
func list(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, item := range strings.Split(t, ",") {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	case nil:
	default:
		if s := strings.TrimSpace(scalarString(t)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// entries normalizes a nested YAML mapping into ordered key/value pairs
func entries(v any) (yamlv2.MapSlice, bool) {
	switch t := v.(type) {
	case yamlv2.MapSlice:
		return t, true
	case map[any]any:
		var ms yamlv2.MapSlice
		for k, val := range t {
			ms = append(ms, yamlv2.MapItem{Key: k, Value: val})
		}
		return ms, true
	}
	return nil, false
}

func lookup(ms yamlv2.MapSlice, key string) (any, bool) {
	for _, item := range ms {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value, true
		}
	}
	return nil, false
}

// slugify turns free text into an agent name
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 64 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// frontmatter builds an external frontmatter block with keys in insertion
// order
type frontmatter struct {
	node *yaml.Node
}

func newFrontmatter() *frontmatter {
	return &frontmatter{node: mapNode()}
}

func (f *frontmatter) set(key string, value *yaml.Node) {
	f.node.Content = append(f.node.Content, textNode(key), value)
}

func (f *frontmatter) str(key, value string) {
	f.set(key, textNode(value))
}

func (f *frontmatter) bool(key string, value bool) {
	f.set(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)})
}

func (f *frontmatter) list(key string, values []string) {
	seq := seqNode()
	for _, v := range values {
		seq.Content = append(seq.Content, textNode(v))
	}
	f.set(key, seq)
}

// render writes the frontmatter block followed by body
func (f *frontmatter) render(body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	if len(f.node.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f.node); err != nil {
			return "", errors.Wrap(err, "failed to encode frontmatter")
		}
		if err := enc.Close(); err != nil {
			return "", errors.Wrap(err, "failed to flush frontmatter")
		}
	}
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.String(), nil
}

func textNode(value string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if strings.Contains(value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

func mapNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func seqNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}
