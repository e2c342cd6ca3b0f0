package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagents-control/oac/pkg/schema"
)

func fullAgent() *schema.OpenAgent {
	temp := 1.0
	return &schema.OpenAgent{
		Metadata: schema.Metadata{
			Name:        "release-manager",
			Description: "true",
			Version:     "2.1.0-rc.1",
			Author:      "Ops Team",
			Tags:        []string{"release", "yes"},
			Mode:        schema.ModePrimary,
		},
		Frontmatter: schema.Frontmatter{
			Model:       "openai/gpt-4.1",
			Temperature: &temp,
			MaxSteps:    40,
			Tools: schema.NewToolAccess(
				schema.ToolRule{Tool: "bash", Rule: schema.PermissionRule{Patterns: []schema.PatternRule{
					{Pattern: "*", Kind: schema.RuleAsk},
					{Pattern: "git tag*", Kind: schema.RuleAllow},
				}}},
				schema.ToolRule{Tool: "write", Rule: schema.PermissionRule{Kind: schema.RuleDeny}},
			),
			Hooks: []schema.HookDefinition{
				{Event: schema.HookSessionStart, Command: "echo 'starting'\necho done"},
				{Event: schema.HookBeforeToolCall, Matcher: "bash", Command: "./guard.sh", Timeout: 5},
			},
			Skills:       []schema.SkillReference{{Name: "changelog"}, {Name: "semver", Path: "skills/semver"}},
			Dependencies: []schema.DependencyReference{{Path: "agents/tester.md"}, {Path: "tools/gh.md", Kind: schema.DependencyTool}},
			Context:      []schema.ContextReference{{Path: "RELEASING.md", Description: "Release checklist"}},
		},
		Body: "\n# Release manager\n\nCut releases carefully.\n",
	}
}

func TestRender_RoundTrip(t *testing.T) {
	agent := fullAgent()

	text, err := Render(agent)
	require.NoError(t, err)

	parsed, err := Parse(text, "release-manager.md")
	require.NoError(t, err)
	assert.True(t, agent.Equal(parsed), "round trip changed the agent:\n%s", text)

	again, err := Render(parsed)
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestRender_Layout(t *testing.T) {
	temp := 0.5
	agent := &schema.OpenAgent{
		Metadata:    schema.Metadata{Name: "small", Description: "A small agent"},
		Frontmatter: schema.Frontmatter{Temperature: &temp, Tools: schema.AllTools(false)},
		Body:        "Body\n",
	}

	text, err := Render(agent)
	require.NoError(t, err)
	assert.Equal(t, `---
name: small
description: A small agent
temperature: 0.5
tools: false
---
Body
`, text)
}

func TestRender_EmptyToolMapping(t *testing.T) {
	agent := &schema.OpenAgent{
		Metadata:    schema.Metadata{Name: "locked"},
		Frontmatter: schema.Frontmatter{Tools: schema.NewToolAccess()},
	}

	text, err := Render(agent)
	require.NoError(t, err)
	assert.Contains(t, text, "tools: {}\n")

	parsed, err := Parse(text, "")
	require.NoError(t, err)
	assert.True(t, agent.Equal(parsed))
}

func TestRender_Nil(t *testing.T) {
	_, err := Render(nil)
	assert.Error(t, err)
}
