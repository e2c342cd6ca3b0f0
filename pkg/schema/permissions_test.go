package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolAccess_Decide(t *testing.T) {
	access := NewToolAccess(
		ToolRule{Tool: "write", Rule: PermissionRule{Kind: RuleDeny}},
		ToolRule{Tool: "bash", Rule: PermissionRule{Patterns: []PatternRule{
			{Pattern: "*", Kind: RuleAsk},
			{Pattern: "git *", Kind: RuleAllow},
			{Pattern: "git push*", Kind: RuleDeny},
		}}},
		ToolRule{Tool: "mcp_*", Rule: PermissionRule{Kind: RuleAllow}},
		ToolRule{Tool: "read", Rule: PermissionRule{Kind: RuleAllow}},
		ToolRule{Tool: "webfetch", Rule: PermissionRule{Patterns: []PatternRule{
			{Pattern: "https://docs.*", Kind: RuleAllow},
		}}},
	)

	tests := []struct {
		tool    string
		subject string
		want    RuleKind
	}{
		{tool: "read", subject: "main.go", want: RuleAllow},
		{tool: "write", subject: "main.go", want: RuleDeny},
		{tool: "edit", subject: "main.go", want: RuleDeny},
		{tool: "bash", subject: "ls -la", want: RuleAsk},
		{tool: "bash", subject: "git status", want: RuleAllow},
		{tool: "bash", subject: "git push origin main", want: RuleDeny},
		{tool: "mcp_github", subject: "", want: RuleAllow},
		{tool: "webfetch", subject: "https://docs.example.com", want: RuleAllow},
		{tool: "webfetch", subject: "https://evil.example.com", want: RuleAsk},
	}

	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, access.Decide(tt.tool, tt.subject))
		})
	}
}

func TestToolAccess_DecideUnsetAndBoolean(t *testing.T) {
	var unset *ToolAccess
	assert.Equal(t, RuleAllow, unset.Decide("bash", "rm -rf /"))
	assert.Equal(t, RuleAllow, AllTools(true).Decide("bash", "ls"))
	assert.Equal(t, RuleDeny, AllTools(false).Decide("read", "main.go"))
}

func TestNewToolAccess_SortsByTool(t *testing.T) {
	rules := []ToolRule{
		{Tool: "write", Rule: PermissionRule{Kind: RuleDeny}},
		{Tool: "bash", Rule: PermissionRule{Kind: RuleAsk}},
		{Tool: "read", Rule: PermissionRule{Kind: RuleAllow}},
	}
	access := NewToolAccess(rules...)

	var tools []string
	for _, r := range access.Rules {
		tools = append(tools, r.Tool)
	}
	assert.Equal(t, []string{"bash", "read", "write"}, tools)
	assert.Equal(t, "write", rules[0].Tool, "input must not be reordered")

	empty := NewToolAccess()
	assert.NotNil(t, empty)
	assert.Nil(t, empty.Rules)
}

func TestPermissionRule_Collapse(t *testing.T) {
	assert.Equal(t, RuleAsk, PermissionRule{Kind: RuleAsk}.Collapse())
	assert.Equal(t, RuleAllow, PermissionRule{Patterns: []PatternRule{
		{Pattern: "rm *", Kind: RuleDeny},
		{Pattern: "git *", Kind: RuleAllow},
	}}.Collapse())
	assert.Equal(t, RuleDeny, PermissionRule{Patterns: []PatternRule{
		{Pattern: "*", Kind: RuleDeny},
	}}.Collapse())
}
