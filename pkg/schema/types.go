// Package schema defines the canonical OpenAgents Control (OAC) agent model
// and the rules that decide whether a frontmatter document describes a
// valid agent. Everything the loader and the adapters exchange is expressed
// in these types.
package schema

import (
	"reflect"
	"slices"
)

// RuleKind is the decision a permission rule yields for a tool invocation
type RuleKind string

// Recognized permission rule kinds
const (
	RuleAllow RuleKind = "allow"
	RuleDeny  RuleKind = "deny"
	RuleAsk   RuleKind = "ask"
)

// AgentMode describes where an agent may be selected
type AgentMode string

// Agent modes
const (
	ModePrimary  AgentMode = "primary"
	ModeSubagent AgentMode = "subagent"
	ModeAll      AgentMode = "all"
)

// HookEvent is a lifecycle trigger a hook is attached to
type HookEvent string

// Hook events understood by the canonical schema
const (
	HookBeforeToolCall  HookEvent = "before_tool_call"
	HookAfterToolCall   HookEvent = "after_tool_call"
	HookUserMessageSend HookEvent = "user_message_send"
	HookAgentStop       HookEvent = "agent_stop"
	HookSessionStart    HookEvent = "session_start"
	HookSessionEnd      HookEvent = "session_end"
)

// DependencyKind classifies what a dependency points at
type DependencyKind string

// Dependency kinds
const (
	DependencyAgent   DependencyKind = "agent"
	DependencyContext DependencyKind = "context"
	DependencySkill   DependencyKind = "skill"
	DependencyTool    DependencyKind = "tool"
)

// Metadata holds the identity fields of an agent
type Metadata struct {
	Name        string
	Description string
	Version     string // strict semver, optional
	Author      string
	Tags        []string
	Mode        AgentMode
}

// PatternRule maps a glob pattern (matched against the tool's subject, e.g.
// a shell command or a file path) to a rule kind.
type PatternRule struct {
	Pattern string
	Kind    RuleKind
}

// PermissionRule is either a single kind applying to the whole tool or an
// ordered list of pattern rules. Exactly one of Kind and Patterns is set.
type PermissionRule struct {
	Kind     RuleKind
	Patterns []PatternRule
}

// IsGranular reports whether the rule is pattern based
func (r PermissionRule) IsGranular() bool {
	return len(r.Patterns) > 0
}

// ToolRule binds a tool name to its permission rule
type ToolRule struct {
	Tool string
	Rule PermissionRule
}

// ToolAccess describes which tools an agent may use. All is set for the
// boolean form (every tool or none); Rules is set for the mapping form and
// is kept sorted by tool name.
type ToolAccess struct {
	All   *bool
	Rules []ToolRule
}

// HookDefinition attaches a command to a lifecycle event
type HookDefinition struct {
	Event   HookEvent
	Matcher string
	Command string
	Timeout int // seconds, 0 means the tool default
}

// SkillReference names a skill the agent relies on
type SkillReference struct {
	Name string
	Path string
}

// DependencyReference points at another OAC artifact by relative path
type DependencyReference struct {
	Path string
	Kind DependencyKind
}

// ContextReference points at a context file loaded alongside the agent
type ContextReference struct {
	Path        string
	Description string
}

// Frontmatter is the structured configuration block of an agent
type Frontmatter struct {
	Model        string
	Temperature  *float64
	MaxSteps     int
	Tools        *ToolAccess
	Hooks        []HookDefinition
	Skills       []SkillReference
	Dependencies []DependencyReference
	Context      []ContextReference
}

// OpenAgent is the validated, tool-agnostic representation of one agent
// definition. Values are treated as immutable once constructed: conversions
// build new agents instead of editing existing ones.
type OpenAgent struct {
	Metadata    Metadata
	Frontmatter Frontmatter
	Body        string
	SourcePath  string
}

// Clone returns a deep copy of the agent
func (a *OpenAgent) Clone() *OpenAgent {
	if a == nil {
		return nil
	}

	c := *a
	c.Metadata.Tags = slices.Clone(a.Metadata.Tags)

	if a.Frontmatter.Temperature != nil {
		t := *a.Frontmatter.Temperature
		c.Frontmatter.Temperature = &t
	}
	if a.Frontmatter.Tools != nil {
		c.Frontmatter.Tools = a.Frontmatter.Tools.clone()
	}
	c.Frontmatter.Hooks = slices.Clone(a.Frontmatter.Hooks)
	c.Frontmatter.Skills = slices.Clone(a.Frontmatter.Skills)
	c.Frontmatter.Dependencies = slices.Clone(a.Frontmatter.Dependencies)
	c.Frontmatter.Context = slices.Clone(a.Frontmatter.Context)

	return &c
}

func (t *ToolAccess) clone() *ToolAccess {
	c := &ToolAccess{}
	if t.All != nil {
		all := *t.All
		c.All = &all
	}
	if t.Rules != nil {
		c.Rules = make([]ToolRule, len(t.Rules))
		for i, r := range t.Rules {
			c.Rules[i] = ToolRule{
				Tool: r.Tool,
				Rule: PermissionRule{Kind: r.Rule.Kind, Patterns: slices.Clone(r.Rule.Patterns)},
			}
		}
	}
	return c
}

// Equal reports whether two agents are semantically equal. SourcePath is
// not part of an agent's identity and is ignored.
func (a *OpenAgent) Equal(b *OpenAgent) bool {
	if a == nil || b == nil {
		return a == b
	}
	x, y := a.Clone(), b.Clone()
	x.SourcePath, y.SourcePath = "", ""
	x.normalize()
	y.normalize()
	return reflect.DeepEqual(x, y)
}

// normalize replaces empty slices with nil so that agents built by different
// code paths compare equal.
func (a *OpenAgent) normalize() {
	if len(a.Metadata.Tags) == 0 {
		a.Metadata.Tags = nil
	}
	fm := &a.Frontmatter
	if len(fm.Hooks) == 0 {
		fm.Hooks = nil
	}
	if len(fm.Skills) == 0 {
		fm.Skills = nil
	}
	if len(fm.Dependencies) == 0 {
		fm.Dependencies = nil
	}
	if len(fm.Context) == 0 {
		fm.Context = nil
	}
	if fm.Tools != nil {
		if len(fm.Tools.Rules) == 0 {
			fm.Tools.Rules = nil
		}
		for i := range fm.Tools.Rules {
			if len(fm.Tools.Rules[i].Rule.Patterns) == 0 {
				fm.Tools.Rules[i].Rule.Patterns = nil
			}
		}
	}
}

// Features returns the canonical features this agent makes use of, in the
// order of AllFeatures.
func (a *OpenAgent) Features() []Feature {
	fm := a.Frontmatter
	used := map[Feature]bool{
		FeatureModel:        fm.Model != "",
		FeatureTemperature:  fm.Temperature != nil,
		FeatureMaxSteps:     fm.MaxSteps > 0,
		FeatureTools:        fm.Tools != nil,
		FeaturePermissions:  fm.Tools.usesGranularPermissions(),
		FeatureHooks:        len(fm.Hooks) > 0,
		FeatureSkills:       len(fm.Skills) > 0,
		FeatureContext:      len(fm.Context) > 0,
		FeatureDependencies: len(fm.Dependencies) > 0,
		FeatureVersion:      a.Metadata.Version != "",
		FeatureMode:         a.Metadata.Mode != "",
		FeatureAuthoring:    a.Metadata.Author != "" || len(a.Metadata.Tags) > 0,
	}

	var features []Feature
	for _, f := range AllFeatures() {
		if used[f] {
			features = append(features, f)
		}
	}
	return features
}

// usesGranularPermissions reports whether any rule goes beyond a plain
// allow/deny toggle per tool.
func (t *ToolAccess) usesGranularPermissions() bool {
	if t == nil {
		return false
	}
	for _, r := range t.Rules {
		if r.Rule.IsGranular() || r.Rule.Kind == RuleAsk {
			return true
		}
	}
	return false
}
