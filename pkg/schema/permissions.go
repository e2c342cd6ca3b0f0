package schema

import (
	"github.com/gobwas/glob"
)

// Decide resolves the permission for invoking tool with subject (a shell
// command, a file path, a URL; whatever the tool acts on).
//
// An unset ToolAccess inherits the host defaults and allows everything. The
// boolean form allows or denies every tool. In the mapping form, a tool
// without a rule is denied; keys may be globs such as "mcp_*", with an exact
// key taking precedence. Granular rules are evaluated in order and the last
// matching pattern wins; a subject no pattern matches yields ask.
func (t *ToolAccess) Decide(tool, subject string) RuleKind {
	if t == nil {
		return RuleAllow
	}
	if t.All != nil {
		if *t.All {
			return RuleAllow
		}
		return RuleDeny
	}

	rule, ok := t.Rule(tool)
	if !ok {
		for _, r := range t.Rules {
			if g, err := glob.Compile(r.Tool); err == nil && g.Match(tool) {
				rule, ok = r.Rule, true
			}
		}
	}
	if !ok {
		return RuleDeny
	}
	if !rule.IsGranular() {
		return rule.Kind
	}

	decision := RuleAsk
	for _, p := range rule.Patterns {
		g, err := glob.Compile(p.Pattern)
		if err != nil {
			continue
		}
		if g.Match(subject) {
			decision = p.Kind
		}
	}
	return decision
}

// Collapse reduces a rule to the single kind a coarse allow/deny toggle
// would need: allow if any subject could be allowed or asked for, deny only
// if every pattern denies.
func (r PermissionRule) Collapse() RuleKind {
	if !r.IsGranular() {
		return r.Kind
	}
	for _, p := range r.Patterns {
		if p.Kind != RuleDeny {
			return RuleAllow
		}
	}
	return RuleDeny
}
