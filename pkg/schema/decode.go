package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter keys
const (
	keyName         = "name"
	keyDescription  = "description"
	keyVersion      = "version"
	keyAuthor       = "author"
	keyTags         = "tags"
	keyMode         = "mode"
	keyModel        = "model"
	keyTemperature  = "temperature"
	keyMaxSteps     = "max_steps"
	keyTools        = "tools"
	keyHooks        = "hooks"
	keySkills       = "skills"
	keyDependencies = "dependencies"
	keyContext      = "context"
)

// FrontmatterKeys lists every key the canonical frontmatter accepts, in
// rendering order. Any other key is rejected.
var FrontmatterKeys = []string{
	keyName, keyDescription, keyVersion, keyAuthor, keyTags, keyMode,
	keyModel, keyTemperature, keyMaxSteps, keyTools, keyHooks,
	keySkills, keyDependencies, keyContext,
}

// Decode validates a parsed frontmatter block and builds the agent it
// describes. On rejection the returned *ValidationError lists every
// violation in document order; no agent is returned.
func Decode(node *yaml.Node, body, sourcePath string) (*OpenAgent, error) {
	d := &decoder{}
	agent := &OpenAgent{Body: body, SourcePath: sourcePath}

	root := documentRoot(node)
	switch {
	case root == nil || isNull(root):
		root = nil
	case root.Kind != yaml.MappingNode:
		d.vs.add("", root.Line, "frontmatter must be a mapping, got %s", kindName(root))
		return nil, d.vs.err(sourcePath)
	}

	hasName := false
	if root != nil {
		seen := make(map[string]bool)
		for i := 0; i+1 < len(root.Content); i += 2 {
			k, v := root.Content[i], resolve(root.Content[i+1])
			key := k.Value
			if k.Kind != yaml.ScalarNode {
				d.vs.add("", k.Line, "frontmatter keys must be strings")
				continue
			}
			if seen[key] {
				d.vs.add(key, k.Line, "duplicate key")
				continue
			}
			seen[key] = true

			switch key {
			case keyName:
				hasName = true
				if s, ok := d.str(key, v); ok {
					d.vs.addErr(key, v.Line, checkName(s))
					agent.Metadata.Name = s
				}
			case keyDescription:
				agent.Metadata.Description, _ = d.str(key, v)
			case keyVersion:
				if s, ok := d.str(key, v); ok && s != "" {
					d.vs.addErr(key, v.Line, checkVersion(s))
					agent.Metadata.Version = s
				}
			case keyAuthor:
				agent.Metadata.Author, _ = d.str(key, v)
			case keyTags:
				agent.Metadata.Tags = d.strList(key, v)
			case keyMode:
				if s, ok := d.str(key, v); ok && s != "" {
					d.vs.addErr(key, v.Line, checkMode(AgentMode(s)))
					agent.Metadata.Mode = AgentMode(s)
				}
			case keyModel:
				if s, ok := d.str(key, v); ok && s != "" {
					d.vs.addErr(key, v.Line, checkModel(s))
					agent.Frontmatter.Model = s
				}
			case keyTemperature:
				if f, ok := d.number(key, v); ok {
					d.vs.addErr(key, v.Line, checkTemperature(f))
					agent.Frontmatter.Temperature = &f
				}
			case keyMaxSteps:
				if n, ok := d.integer(key, v); ok {
					if n <= 0 {
						d.vs.add(key, v.Line, "must be a positive integer")
					}
					agent.Frontmatter.MaxSteps = n
				}
			case keyTools:
				agent.Frontmatter.Tools = d.tools(v)
			case keyHooks:
				agent.Frontmatter.Hooks = d.hooks(v)
			case keySkills:
				agent.Frontmatter.Skills = d.skills(v)
			case keyDependencies:
				agent.Frontmatter.Dependencies = d.dependencies(v)
			case keyContext:
				agent.Frontmatter.Context = d.context(v)
			default:
				d.vs.add(key, k.Line, "unknown field")
			}
		}
	}

	if !hasName {
		line := 0
		if root != nil {
			line = root.Line
		}
		d.vs.add(keyName, line, "is required")
	}

	if err := d.vs.err(sourcePath); err != nil {
		return nil, err
	}
	agent.normalize()
	return agent, nil
}

type decoder struct {
	vs violations
}

func documentRoot(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		return resolve(n.Content[0])
	}
	if n.Kind == 0 {
		return nil
	}
	return resolve(n)
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return "a string"
		case "!!int", "!!float":
			return "a number"
		case "!!bool":
			return "a boolean"
		case "!!null":
			return "null"
		}
		return "a scalar"
	}
	return "an unsupported node"
}

// str returns the string value of a scalar. Null is treated as unset and
// reported as ok with an empty value.
func (d *decoder) str(field string, n *yaml.Node) (string, bool) {
	if isNull(n) {
		return "", true
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		d.vs.add(field, n.Line, "must be a string, got %s", kindName(n))
		return "", false
	}
	return n.Value, true
}

func (d *decoder) number(field string, n *yaml.Node) (float64, bool) {
	if isNull(n) {
		return 0, false
	}
	tag := n.ShortTag()
	if n.Kind != yaml.ScalarNode || (tag != "!!int" && tag != "!!float") {
		d.vs.add(field, n.Line, "must be a number, got %s", kindName(n))
		return 0, false
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		d.vs.add(field, n.Line, "must be a number: %v", err)
		return 0, false
	}
	return f, true
}

func (d *decoder) integer(field string, n *yaml.Node) (int, bool) {
	if isNull(n) {
		return 0, false
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		d.vs.add(field, n.Line, "must be an integer, got %s", kindName(n))
		return 0, false
	}
	var i int
	if err := n.Decode(&i); err != nil {
		d.vs.add(field, n.Line, "must be an integer: %v", err)
		return 0, false
	}
	return i, true
}

func (d *decoder) strList(field string, n *yaml.Node) []string {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		d.vs.add(field, n.Line, "must be a list of strings, got %s", kindName(n))
		return nil
	}
	var out []string
	for i, item := range n.Content {
		item = resolve(item)
		if s, ok := d.str(fmt.Sprintf("%s[%d]", field, i), item); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) ruleKind(field string, n *yaml.Node) (RuleKind, bool) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool" {
		var b bool
		if err := n.Decode(&b); err != nil {
			d.vs.add(field, n.Line, "invalid boolean: %v", err)
			return "", false
		}
		if b {
			return RuleAllow, true
		}
		return RuleDeny, true
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		d.vs.add(field, n.Line, "permission must be allow, deny, ask or a boolean, got %s", kindName(n))
		return "", false
	}
	kind := RuleKind(n.Value)
	if err := checkRuleKind(kind); err != nil {
		d.vs.addErr(field, n.Line, err)
		return "", false
	}
	return kind, true
}

func (d *decoder) tools(n *yaml.Node) *ToolAccess {
	if isNull(n) {
		return nil
	}

	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool" {
		var all bool
		if err := n.Decode(&all); err != nil {
			d.vs.add(keyTools, n.Line, "invalid boolean: %v", err)
			return nil
		}
		return &ToolAccess{All: &all}
	}

	if n.Kind != yaml.MappingNode {
		d.vs.add(keyTools, n.Line, "must be a boolean or a mapping of tool permissions, got %s", kindName(n))
		return nil
	}

	var rules []ToolRule
	seen := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolve(n.Content[i+1])
		tool := k.Value
		field := keyTools + "." + tool

		if err := checkToolName(tool); err != nil {
			d.vs.addErr(field, k.Line, err)
			continue
		}
		if seen[tool] {
			d.vs.add(field, k.Line, "duplicate tool")
			continue
		}
		seen[tool] = true

		if v.Kind == yaml.MappingNode {
			var patterns []PatternRule
			for j := 0; j+1 < len(v.Content); j += 2 {
				pk, pv := v.Content[j], resolve(v.Content[j+1])
				pfield := field + "." + pk.Value
				if err := checkPattern(pk.Value); err != nil {
					d.vs.addErr(pfield, pk.Line, err)
					continue
				}
				if kind, ok := d.ruleKind(pfield, pv); ok {
					patterns = append(patterns, PatternRule{Pattern: pk.Value, Kind: kind})
				}
			}
			if len(v.Content) == 0 {
				d.vs.add(field, v.Line, "granular permissions must list at least one pattern")
			}
			rules = append(rules, ToolRule{Tool: tool, Rule: PermissionRule{Patterns: patterns}})
			continue
		}

		if kind, ok := d.ruleKind(field, v); ok {
			rules = append(rules, ToolRule{Tool: tool, Rule: PermissionRule{Kind: kind}})
		}
	}

	return NewToolAccess(rules...)
}

// mapping iterates over a mapping node, rejecting keys outside allowed
func (d *decoder) mapping(field string, n *yaml.Node, allowed []string, fn func(key string, v *yaml.Node)) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolve(n.Content[i+1])
		known := false
		for _, a := range allowed {
			if a == k.Value {
				known = true
				break
			}
		}
		if !known {
			d.vs.add(field+"."+k.Value, k.Line, "unknown field")
			continue
		}
		fn(k.Value, v)
	}
}

// peekStr returns the string value of key in a mapping without reporting
// anything; type problems have already been reported by the caller.
func (d *decoder) peekStr(n *yaml.Node, key string) (string, bool) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			v := resolve(n.Content[i+1])
			if v.Kind == yaml.ScalarNode && v.ShortTag() == "!!str" {
				return v.Value, true
			}
			return "", false
		}
	}
	return "", false
}

func (d *decoder) sequence(field string, n *yaml.Node) []*yaml.Node {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		d.vs.add(field, n.Line, "must be a list, got %s", kindName(n))
		return nil
	}
	items := make([]*yaml.Node, len(n.Content))
	for i, item := range n.Content {
		items[i] = resolve(item)
	}
	return items
}

func (d *decoder) hooks(n *yaml.Node) []HookDefinition {
	var hooks []HookDefinition
	for i, item := range d.sequence(keyHooks, n) {
		field := fmt.Sprintf("%s[%d]", keyHooks, i)
		if item.Kind != yaml.MappingNode {
			d.vs.add(field, item.Line, "hook must be a mapping, got %s", kindName(item))
			continue
		}

		var h HookDefinition
		present := make(map[string]bool)
		d.mapping(field, item, []string{"event", "matcher", "command", "timeout"}, func(key string, v *yaml.Node) {
			present[key] = true
			switch key {
			case "event":
				if s, ok := d.str(field+".event", v); ok && s != "" {
					d.vs.addErr(field+".event", v.Line, checkHookEvent(HookEvent(s)))
					h.Event = HookEvent(s)
				}
			case "matcher":
				h.Matcher, _ = d.str(field+".matcher", v)
			case "command":
				h.Command, _ = d.str(field+".command", v)
			case "timeout":
				if t, ok := d.integer(field+".timeout", v); ok {
					if t < 0 {
						d.vs.add(field+".timeout", v.Line, "must not be negative")
					}
					h.Timeout = t
				}
			}
		})
		if !present["event"] {
			d.vs.add(field+".event", item.Line, "is required")
		}
		if !present["command"] {
			d.vs.add(field+".command", item.Line, "is required")
		} else if c, ok := d.peekStr(item, "command"); ok && strings.TrimSpace(c) == "" {
			d.vs.add(field+".command", item.Line, "must not be empty")
		}
		hooks = append(hooks, h)
	}
	return hooks
}

func (d *decoder) skills(n *yaml.Node) []SkillReference {
	var skills []SkillReference
	for i, item := range d.sequence(keySkills, n) {
		field := fmt.Sprintf("%s[%d]", keySkills, i)
		var s SkillReference
		switch item.Kind {
		case yaml.ScalarNode:
			name, ok := d.str(field, item)
			if !ok {
				continue
			}
			s.Name = name
		case yaml.MappingNode:
			d.mapping(field, item, []string{"name", "path"}, func(key string, v *yaml.Node) {
				switch key {
				case "name":
					s.Name, _ = d.str(field+".name", v)
				case "path":
					if p, ok := d.str(field+".path", v); ok && p != "" {
						d.vs.addErr(field+".path", v.Line, checkRelativePath(p))
						s.Path = p
					}
				}
			})
		default:
			d.vs.add(field, item.Line, "skill must be a name or a mapping, got %s", kindName(item))
			continue
		}
		d.vs.addErr(field+".name", item.Line, checkSkillName(s.Name))
		skills = append(skills, s)
	}
	return skills
}

func (d *decoder) dependencies(n *yaml.Node) []DependencyReference {
	var deps []DependencyReference
	for i, item := range d.sequence(keyDependencies, n) {
		field := fmt.Sprintf("%s[%d]", keyDependencies, i)
		var dep DependencyReference
		switch item.Kind {
		case yaml.ScalarNode:
			p, ok := d.str(field, item)
			if !ok {
				continue
			}
			dep.Path = p
		case yaml.MappingNode:
			d.mapping(field, item, []string{"path", "kind"}, func(key string, v *yaml.Node) {
				switch key {
				case "path":
					dep.Path, _ = d.str(field+".path", v)
				case "kind":
					if s, ok := d.str(field+".kind", v); ok && s != "" {
						d.vs.addErr(field+".kind", v.Line, checkDependencyKind(DependencyKind(s)))
						dep.Kind = DependencyKind(s)
					}
				}
			})
		default:
			d.vs.add(field, item.Line, "dependency must be a path or a mapping, got %s", kindName(item))
			continue
		}
		d.vs.addErr(field+".path", item.Line, checkRelativePath(dep.Path))
		deps = append(deps, dep)
	}
	return deps
}

func (d *decoder) context(n *yaml.Node) []ContextReference {
	var refs []ContextReference
	for i, item := range d.sequence(keyContext, n) {
		field := fmt.Sprintf("%s[%d]", keyContext, i)
		var ref ContextReference
		switch item.Kind {
		case yaml.ScalarNode:
			p, ok := d.str(field, item)
			if !ok {
				continue
			}
			ref.Path = p
		case yaml.MappingNode:
			d.mapping(field, item, []string{"path", "description"}, func(key string, v *yaml.Node) {
				switch key {
				case "path":
					ref.Path, _ = d.str(field+".path", v)
				case "description":
					ref.Description, _ = d.str(field+".description", v)
				}
			})
		default:
			d.vs.add(field, item.Line, "context must be a path or a mapping, got %s", kindName(item))
			continue
		}
		d.vs.addErr(field+".path", item.Line, checkRelativePath(ref.Path))
		refs = append(refs, ref)
	}
	return refs
}
