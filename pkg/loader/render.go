package loader

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openagents-control/oac/pkg/schema"
)

// Render writes agent back out in the canonical document format. Keys follow
// schema.FrontmatterKeys order and unset fields are omitted, so
// Parse(Render(a)) is equal to a.
func Render(agent *schema.OpenAgent) (string, error) {
	if agent == nil {
		return "", errors.New("cannot render a nil agent")
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	fm := FrontmatterNode(agent)
	if len(fm.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(fm); err != nil {
			return "", errors.Wrapf(err, "failed to encode frontmatter of %s", agent.Metadata.Name)
		}
		if err := enc.Close(); err != nil {
			return "", errors.Wrap(err, "failed to flush frontmatter")
		}
	}

	buf.WriteString(delimiter + "\n")
	buf.WriteString(agent.Body)
	return buf.String(), nil
}

// FrontmatterNode builds the canonical frontmatter mapping for agent
func FrontmatterNode(agent *schema.OpenAgent) *yaml.Node {
	m := newMapping()
	md, fm := agent.Metadata, agent.Frontmatter

	m.str("name", md.Name)
	m.str("description", md.Description)
	m.str("version", md.Version)
	m.str("author", md.Author)
	if len(md.Tags) > 0 {
		m.add("tags", strSeq(md.Tags))
	}
	m.str("mode", string(md.Mode))
	m.str("model", fm.Model)
	if fm.Temperature != nil {
		m.add("temperature", scalar("!!float", formatFloat(*fm.Temperature)))
	}
	if fm.MaxSteps != 0 {
		m.add("max_steps", scalar("!!int", strconv.Itoa(fm.MaxSteps)))
	}
	if fm.Tools != nil {
		m.add("tools", toolsNode(fm.Tools))
	}
	if len(fm.Hooks) > 0 {
		seq := newSeq()
		for _, h := range fm.Hooks {
			hm := newMapping()
			hm.str("event", string(h.Event))
			hm.str("matcher", h.Matcher)
			hm.add("command", strScalar(h.Command))
			if h.Timeout != 0 {
				hm.add("timeout", scalar("!!int", strconv.Itoa(h.Timeout)))
			}
			seq.Content = append(seq.Content, hm.Node)
		}
		m.add("hooks", seq)
	}
	if len(fm.Skills) > 0 {
		seq := newSeq()
		for _, s := range fm.Skills {
			if s.Path == "" {
				seq.Content = append(seq.Content, strScalar(s.Name))
				continue
			}
			sm := newMapping()
			sm.str("name", s.Name)
			sm.str("path", s.Path)
			seq.Content = append(seq.Content, sm.Node)
		}
		m.add("skills", seq)
	}
	if len(fm.Dependencies) > 0 {
		seq := newSeq()
		for _, d := range fm.Dependencies {
			if d.Kind == "" {
				seq.Content = append(seq.Content, strScalar(d.Path))
				continue
			}
			dm := newMapping()
			dm.str("path", d.Path)
			dm.str("kind", string(d.Kind))
			seq.Content = append(seq.Content, dm.Node)
		}
		m.add("dependencies", seq)
	}
	if len(fm.Context) > 0 {
		seq := newSeq()
		for _, c := range fm.Context {
			if c.Description == "" {
				seq.Content = append(seq.Content, strScalar(c.Path))
				continue
			}
			cm := newMapping()
			cm.str("path", c.Path)
			cm.str("description", c.Description)
			seq.Content = append(seq.Content, cm.Node)
		}
		m.add("context", seq)
	}
	return m.Node
}

func toolsNode(t *schema.ToolAccess) *yaml.Node {
	if t.All != nil {
		return scalar("!!bool", strconv.FormatBool(*t.All))
	}
	m := newMapping()
	for _, r := range t.Rules {
		if !r.Rule.IsGranular() {
			m.add(r.Tool, strScalar(string(r.Rule.Kind)))
			continue
		}
		pm := newMapping()
		for _, p := range r.Rule.Patterns {
			pm.add(p.Pattern, strScalar(string(p.Kind)))
		}
		m.add(r.Tool, pm.Node)
	}
	if len(m.Content) == 0 {
		m.Style = yaml.FlowStyle
	}
	return m.Node
}

// formatFloat keeps a fractional part so the value reads back as a float
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// mapping wraps a yaml mapping node with ordered append helpers
type mapping struct {
	*yaml.Node
}

func newMapping() mapping {
	return mapping{&yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func (m mapping) add(key string, value *yaml.Node) {
	m.Content = append(m.Content, strScalar(key), value)
}

// str adds key only when value is non-empty
func (m mapping) str(key, value string) {
	if value != "" {
		m.add(key, strScalar(value))
	}
}

func newSeq() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func strSeq(values []string) *yaml.Node {
	seq := newSeq()
	seq.Style = yaml.FlowStyle
	for _, v := range values {
		seq.Content = append(seq.Content, strScalar(v))
	}
	return seq
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// strScalar builds a string scalar; the encoder quotes it whenever the
// plain form would resolve to another type.
func strScalar(value string) *yaml.Node {
	n := scalar("!!str", value)
	if strings.Contains(value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}
