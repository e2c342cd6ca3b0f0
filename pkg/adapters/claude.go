package adapters

import (
	"context"
	"path"
	"slices"
	"strings"

	"github.com/openagents-control/oac/pkg/schema"
)

// Claude converts to and from Claude Code subagent files
// (.claude/agents/<name>.md).
type Claude struct{}

// NewClaude returns the Claude Code adapter
func NewClaude() *Claude { return &Claude{} }

func (*Claude) Name() string        { return "claude" }
func (*Claude) DisplayName() string { return "Claude Code" }

func (*Claude) Capabilities() schema.ToolCapabilities {
	return schema.ToolCapabilities{
		Features: []schema.Feature{
			schema.FeatureModel,
			schema.FeatureTools,
			schema.FeatureHooks,
			schema.FeatureSkills,
		},
		ConfigFormat: "markdown+yaml",
		OutputDir:    ".claude/agents",
		Notes:        "tools are allow/deny lists; ask and pattern rules are collapsed",
	}
}

// claudeTools maps canonical tool names to Claude Code tool names
var claudeTools = map[string]string{
	"read":         "Read",
	"write":        "Write",
	"edit":         "Edit",
	"multiedit":    "MultiEdit",
	"bash":         "Bash",
	"grep":         "Grep",
	"glob":         "Glob",
	"list":         "LS",
	"webfetch":     "WebFetch",
	"websearch":    "WebSearch",
	"todowrite":    "TodoWrite",
	"task":         "Task",
	"notebookedit": "NotebookEdit",
}

var canonicalTools = func() map[string]string {
	m := make(map[string]string, len(claudeTools))
	for k, v := range claudeTools {
		m[v] = k
	}
	return m
}()

// claudeEvents maps canonical hook events to Claude Code hook events
var claudeEvents = map[schema.HookEvent]string{
	schema.HookBeforeToolCall: "PreToolUse",
	schema.HookAfterToolCall:  "PostToolUse",
	schema.HookAgentStop:      "Stop",
}

var canonicalEvents = func() map[string]schema.HookEvent {
	m := make(map[string]schema.HookEvent, len(claudeEvents))
	for k, v := range claudeEvents {
		m[v] = k
	}
	return m
}()

const modelInherit = "inherit"

var claudeKeys = []string{"name", "description", "tools", "disallowedTools", "model", "skills", "hooks"}

func (a *Claude) FromOAC(ctx context.Context, agent *schema.OpenAgent) schema.ConversionResult[Document] {
	return observe(ctx, a.Name(), directionFromOAC, func(context.Context) schema.ConversionResult[Document] {
		var r schema.Report
		if !checkAgent(&r, agent) {
			return schema.Failure[Document](&r)
		}
		if strings.TrimSpace(agent.Metadata.Description) == "" {
			r.Fail("description: required by %s to decide when to delegate to the agent", a.DisplayName())
			return schema.Failure[Document](&r)
		}

		fm := newFrontmatter()
		fm.str("name", agent.Metadata.Name)
		fm.str("description", agent.Metadata.Description)
		writeClaudeTools(&r, fm, agent.Frontmatter.Tools)
		if model, ok := claudeModel(&r, agent.Frontmatter.Model); ok {
			fm.str("model", model)
		}
		if skills := claudeSkills(&r, agent.Frontmatter.Skills); skills != "" {
			fm.str("skills", skills)
		}
		writeClaudeHooks(&r, fm, agent.Frontmatter.Hooks)

		dropUnsupported(&r, agent, a.Capabilities(), a.DisplayName(), schema.FeaturePermissions)

		content, err := fm.render(agent.Body)
		if err != nil {
			r.FailErr(err)
			return schema.Failure[Document](&r)
		}
		return schema.Result(&r, Document{
			Path:    path.Join(a.Capabilities().OutputDir, agent.Metadata.Name+".md"),
			Content: content,
		})
	})
}

func claudeTool(r *schema.Report, tool string) string {
	if name, ok := claudeTools[tool]; ok {
		return name
	}
	r.Drop(schema.FeatureTools, "%q is not a built-in Claude Code tool; written as is", tool)
	return tool
}

func writeClaudeTools(r *schema.Report, fm *frontmatter, t *schema.ToolAccess) {
	switch {
	case t == nil:
		return
	case t.All != nil && *t.All:
		r.Drop(schema.FeatureTools, "all tools allowed; written by omitting tools, which reads back as unset")
		return
	case t.All != nil:
		fm.str("tools", "")
		return
	case len(t.Rules) == 0:
		r.Drop(schema.FeatureTools, "empty tool mapping written as no tools")
		fm.str("tools", "")
		return
	}

	var allowed, denied []string
	wildcard := false
	for _, rule := range t.Rules {
		kind := rule.Rule.Kind
		if rule.Rule.IsGranular() {
			kind = rule.Rule.Collapse()
			r.Drop(schema.FeaturePermissions, "pattern rules for %q collapsed to %s", rule.Tool, kind)
		}
		if kind == schema.RuleAsk {
			kind = schema.RuleAllow
			r.Drop(schema.FeaturePermissions, "%q asks for confirmation; written as allow", rule.Tool)
		}

		if rule.Tool == "*" {
			wildcard = kind == schema.RuleAllow
			continue
		}
		if strings.ContainsAny(rule.Tool, "*?[{") {
			r.Drop(schema.FeatureTools, "tool pattern %q has no Claude Code equivalent; dropped", rule.Tool)
			continue
		}

		name := claudeTool(r, rule.Tool)
		if kind == schema.RuleDeny {
			denied = append(denied, name)
		} else {
			allowed = append(allowed, name)
		}
	}

	if wildcard {
		if len(allowed) > 0 || len(denied) == 0 {
			r.Drop(schema.FeatureTools, "wildcard allow written by omitting tools; explicit allow rules are implied")
		}
	} else {
		fm.str("tools", strings.Join(allowed, ", "))
	}
	if len(denied) > 0 {
		fm.str("disallowedTools", strings.Join(denied, ", "))
	}
}

func claudeModel(r *schema.Report, model string) (string, bool) {
	if model == "" {
		return "", false
	}
	provider, id, err := schema.ParseModel(model)
	if err != nil {
		r.Drop(schema.FeatureModel, "%v; dropped", err)
		return "", false
	}
	if provider == "" || provider == "anthropic" {
		return id, true
	}
	r.Drop(schema.FeatureModel, "model %q is not served by Claude Code; dropped, the session model is inherited", model)
	return "", false
}

func claudeSkills(r *schema.Report, skills []schema.SkillReference) string {
	var names []string
	for _, s := range skills {
		if s.Path != "" {
			r.Drop(schema.FeatureSkills, "path %q of skill %q dropped; Claude Code resolves skills by name", s.Path, s.Name)
		}
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

// claudeMatcher maps the tool names inside a "a|b" matcher
func claudeMatcher(matcher string, names map[string]string) string {
	if matcher == "" {
		return ""
	}
	parts := strings.Split(matcher, "|")
	for i, p := range parts {
		if name, ok := names[strings.TrimSpace(p)]; ok {
			parts[i] = name
		}
	}
	return strings.Join(parts, "|")
}

type hookGroup struct {
	matcher string
	hooks   []schema.HookDefinition
}

// writeClaudeHooks writes hooks in Claude Code's nested layout: grouped by
// event, then by matcher, both in order of first appearance.
func writeClaudeHooks(r *schema.Report, fm *frontmatter, hooks []schema.HookDefinition) {
	var events []string
	groups := make(map[string][]*hookGroup)
	var kept []schema.HookDefinition

	for _, h := range hooks {
		event, ok := claudeEvents[h.Event]
		if !ok {
			r.Drop(schema.FeatureHooks, "%s hook %q has no Claude Code equivalent; dropped", h.Event, h.Command)
			continue
		}
		kept = append(kept, h)

		if _, seen := groups[event]; !seen {
			events = append(events, event)
		}
		var g *hookGroup
		for _, existing := range groups[event] {
			if existing.matcher == h.Matcher {
				g = existing
				break
			}
		}
		if g == nil {
			g = &hookGroup{matcher: h.Matcher}
			groups[event] = append(groups[event], g)
		}
		g.hooks = append(g.hooks, h)
	}
	if len(events) == 0 {
		return
	}

	var regrouped []schema.HookDefinition
	root := mapNode()
	for _, event := range events {
		matchers := seqNode()
		for _, g := range groups[event] {
			entry := mapNode()
			if g.matcher != "" {
				entry.Content = append(entry.Content, textNode("matcher"), textNode(claudeMatcher(g.matcher, claudeTools)))
			}
			commands := seqNode()
			for _, h := range g.hooks {
				cmd := mapNode()
				cmd.Content = append(cmd.Content,
					textNode("type"), textNode("command"),
					textNode("command"), textNode(h.Command),
				)
				if h.Timeout > 0 {
					cmd.Content = append(cmd.Content, textNode("timeout"), intNode(h.Timeout))
				}
				commands.Content = append(commands.Content, cmd)
				regrouped = append(regrouped, h)
			}
			entry.Content = append(entry.Content, textNode("hooks"), commands)
			matchers.Content = append(matchers.Content, entry)
		}
		root.Content = append(root.Content, textNode(event), matchers)
	}
	fm.set("hooks", root)

	if !slices.Equal(kept, regrouped) {
		r.Drop(schema.FeatureHooks, "hooks regrouped by event and matcher; their relative order changed")
	}
}

func (a *Claude) ToOAC(ctx context.Context, source string) schema.ConversionResult[*schema.OpenAgent] {
	return observe(ctx, a.Name(), directionToOAC, func(context.Context) schema.ConversionResult[*schema.OpenAgent] {
		var r schema.Report
		src, err := parseSource(source)
		if err != nil {
			r.FailErr(err)
			return schema.Failure[*schema.OpenAgent](&r)
		}
		if len(src.items) == 0 {
			r.Fail("document has no frontmatter")
			return schema.Failure[*schema.OpenAgent](&r)
		}

		name, _ := src.str("name")
		description, _ := src.str("description")
		if name == "" {
			r.Fail("name: required")
		}
		if strings.TrimSpace(description) == "" {
			r.Fail("description: required")
		}
		if r.Failed() {
			return schema.Failure[*schema.OpenAgent](&r)
		}

		for _, key := range src.keys() {
			if !slices.Contains(claudeKeys, key) {
				r.Warn("%s: no canonical equivalent; dropped", key)
			}
		}

		agent := &schema.OpenAgent{
			Metadata: schema.Metadata{Name: name, Description: description},
			Body:     src.body,
		}
		fm := &agent.Frontmatter
		fm.Tools = readClaudeTools(&r, src)
		if model, ok := src.str("model"); ok && model != "" && model != modelInherit {
			if slices.Contains(schema.ModelAliases, model) {
				fm.Model = model
			} else {
				fm.Model = "anthropic/" + model
			}
		}
		if v, ok := src.get("skills"); ok {
			for _, s := range list(v) {
				fm.Skills = append(fm.Skills, schema.SkillReference{Name: s})
			}
		}
		if v, ok := src.get("hooks"); ok {
			fm.Hooks = readClaudeHooks(&r, v)
		}

		if err := agent.Validate(); err != nil {
			r.FailErr(err)
			return schema.Failure[*schema.OpenAgent](&r)
		}
		return schema.Result(&r, agent)
	})
}

func canonicalTool(name string) string {
	if tool, ok := canonicalTools[name]; ok {
		return tool
	}
	return name
}

func readClaudeTools(r *schema.Report, src *source) *schema.ToolAccess {
	toolsValue, hasTools := src.get("tools")
	if hasTools && toolsValue == nil {
		hasTools = false
	}
	var denied []string
	if v, ok := src.get("disallowedTools"); ok {
		denied = list(v)
	}

	if hasTools {
		// tools: "" with disallowedTools is a deny-only mapping
		allowed := list(toolsValue)
		if len(allowed) == 0 && len(denied) == 0 {
			return schema.AllTools(false)
		}
		kinds := make(map[string]schema.RuleKind)
		var order []string
		for _, name := range allowed {
			tool := canonicalTool(name)
			if _, seen := kinds[tool]; !seen {
				order = append(order, tool)
			}
			kinds[tool] = schema.RuleAllow
		}
		for _, name := range denied {
			tool := canonicalTool(name)
			if kinds[tool] == schema.RuleAllow {
				r.Warn("tools: %s is both allowed and disallowed; deny wins", name)
			}
			if _, seen := kinds[tool]; !seen {
				order = append(order, tool)
			}
			kinds[tool] = schema.RuleDeny
		}
		rules := make([]schema.ToolRule, 0, len(order))
		for _, tool := range order {
			rules = append(rules, schema.ToolRule{Tool: tool, Rule: schema.PermissionRule{Kind: kinds[tool]}})
		}
		return schema.NewToolAccess(rules...)
	}

	if len(denied) == 0 {
		return nil
	}
	rules := []schema.ToolRule{{Tool: "*", Rule: schema.PermissionRule{Kind: schema.RuleAllow}}}
	for _, name := range denied {
		tool := canonicalTool(name)
		if !slices.ContainsFunc(rules, func(tr schema.ToolRule) bool { return tr.Tool == tool }) {
			rules = append(rules, schema.ToolRule{Tool: tool, Rule: schema.PermissionRule{Kind: schema.RuleDeny}})
		}
	}
	return schema.NewToolAccess(rules...)
}

func readClaudeHooks(r *schema.Report, v any) []schema.HookDefinition {
	events, ok := entries(v)
	if !ok {
		r.Warn("hooks: expected a mapping of events; dropped")
		return nil
	}

	var hooks []schema.HookDefinition
	for _, item := range events {
		name := scalarString(item.Key)
		event, ok := canonicalEvents[name]
		if !ok {
			r.Drop(schema.FeatureHooks, "%s hooks have no canonical equivalent; dropped", name)
			continue
		}
		groups, _ := item.Value.([]any)
		for _, g := range groups {
			group, ok := entries(g)
			if !ok {
				r.Drop(schema.FeatureHooks, "malformed %s entry dropped", name)
				continue
			}
			var matcher string
			if m, ok := lookup(group, "matcher"); ok && m != nil {
				matcher = claudeMatcher(scalarString(m), canonicalTools)
			}
			commands, _ := lookup(group, "hooks")
			cmds, _ := commands.([]any)
			for _, c := range cmds {
				cmd, ok := entries(c)
				if !ok {
					r.Drop(schema.FeatureHooks, "malformed %s hook dropped", name)
					continue
				}
				if typ, _ := lookup(cmd, "type"); typ != nil && scalarString(typ) != "command" {
					r.Drop(schema.FeatureHooks, "%s hook of type %q dropped; only command hooks are supported", name, scalarString(typ))
					continue
				}
				command, _ := lookup(cmd, "command")
				if command == nil || scalarString(command) == "" {
					r.Drop(schema.FeatureHooks, "%s hook without a command dropped", name)
					continue
				}
				h := schema.HookDefinition{Event: event, Matcher: matcher, Command: scalarString(command)}
				timeout, _ := lookup(cmd, "timeout")
				switch t := timeout.(type) {
				case int:
					h.Timeout = t
				case float64:
					h.Timeout = int(t)
				}
				hooks = append(hooks, h)
			}
		}
	}
	return hooks
}
