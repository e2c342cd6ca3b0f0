package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks an already-typed agent against the same rules Decode
// applies to raw frontmatter. Adapters call it on the agents they build so
// that every canonical agent, whatever its origin, satisfies the schema.
func (a *OpenAgent) Validate() error {
	var vs violations
	if a == nil {
		vs.add("", 0, "agent is nil")
		return vs.err("")
	}

	m := a.Metadata
	vs.addErr(keyName, 0, checkName(m.Name))
	if m.Version != "" {
		vs.addErr(keyVersion, 0, checkVersion(m.Version))
	}
	if m.Mode != "" {
		vs.addErr(keyMode, 0, checkMode(m.Mode))
	}
	for i, tag := range m.Tags {
		if tag == "" {
			vs.add(fmt.Sprintf("%s[%d]", keyTags, i), 0, "must not be empty")
		}
	}

	fm := a.Frontmatter
	if fm.Model != "" {
		vs.addErr(keyModel, 0, checkModel(fm.Model))
	}
	if fm.Temperature != nil {
		vs.addErr(keyTemperature, 0, checkTemperature(*fm.Temperature))
	}
	if fm.MaxSteps < 0 {
		vs.add(keyMaxSteps, 0, "must be a positive integer")
	}
	validateTools(&vs, fm.Tools)

	for i, h := range fm.Hooks {
		field := fmt.Sprintf("%s[%d]", keyHooks, i)
		vs.addErr(field+".event", 0, checkHookEvent(h.Event))
		if strings.TrimSpace(h.Command) == "" {
			vs.add(field+".command", 0, "is required")
		}
		if h.Timeout < 0 {
			vs.add(field+".timeout", 0, "must not be negative")
		}
	}
	for i, s := range fm.Skills {
		field := fmt.Sprintf("%s[%d]", keySkills, i)
		vs.addErr(field+".name", 0, checkSkillName(s.Name))
		if s.Path != "" {
			vs.addErr(field+".path", 0, checkRelativePath(s.Path))
		}
	}
	for i, d := range fm.Dependencies {
		field := fmt.Sprintf("%s[%d]", keyDependencies, i)
		vs.addErr(field+".path", 0, checkRelativePath(d.Path))
		if d.Kind != "" {
			vs.addErr(field+".kind", 0, checkDependencyKind(d.Kind))
		}
	}
	for i, c := range fm.Context {
		vs.addErr(fmt.Sprintf("%s[%d].path", keyContext, i), 0, checkRelativePath(c.Path))
	}

	return vs.err(a.SourcePath)
}

func validateTools(vs *violations, t *ToolAccess) {
	if t == nil {
		return
	}
	if t.All != nil && len(t.Rules) > 0 {
		vs.add(keyTools, 0, "cannot be both a boolean and a mapping")
	}

	seen := make(map[string]bool)
	for _, r := range t.Rules {
		field := keyTools + "." + r.Tool
		if err := checkToolName(r.Tool); err != nil {
			vs.addErr(field, 0, err)
			continue
		}
		if seen[r.Tool] {
			vs.add(field, 0, "duplicate tool")
		}
		seen[r.Tool] = true

		switch {
		case r.Rule.Kind != "" && r.Rule.IsGranular():
			vs.add(field, 0, "rule cannot have both a kind and patterns")
		case r.Rule.Kind == "" && !r.Rule.IsGranular():
			vs.add(field, 0, "rule must have a kind or patterns")
		case r.Rule.Kind != "":
			vs.addErr(field, 0, checkRuleKind(r.Rule.Kind))
		}
		for _, p := range r.Rule.Patterns {
			pfield := field + "." + p.Pattern
			vs.addErr(pfield, 0, checkPattern(p.Pattern))
			vs.addErr(pfield, 0, checkRuleKind(p.Kind))
		}
	}
}

// NewToolAccess builds the mapping form of ToolAccess with rules sorted by
// tool name.
func NewToolAccess(rules ...ToolRule) *ToolAccess {
	sorted := make([]ToolRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tool < sorted[j].Tool
	})
	if len(sorted) == 0 {
		sorted = nil
	}
	return &ToolAccess{Rules: sorted}
}

// AllTools builds the boolean form of ToolAccess
func AllTools(enabled bool) *ToolAccess {
	return &ToolAccess{All: &enabled}
}

// Rule returns the rule bound to tool by exact name
func (t *ToolAccess) Rule(tool string) (PermissionRule, bool) {
	if t == nil {
		return PermissionRule{}, false
	}
	for _, r := range t.Rules {
		if r.Tool == tool {
			return r.Rule, true
		}
	}
	return PermissionRule{}, false
}
