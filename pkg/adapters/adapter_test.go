package adapters

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/openagents-control/oac/pkg/schema"
)

// everythingAgent uses every canonical feature
func everythingAgent() *schema.OpenAgent {
	temp := 0.3
	return &schema.OpenAgent{
		Metadata: schema.Metadata{
			Name:        "release-manager",
			Description: "Cuts releases",
			Version:     "1.2.0",
			Author:      "Ops",
			Tags:        []string{"release"},
			Mode:        schema.ModePrimary,
		},
		Frontmatter: schema.Frontmatter{
			Model:       "anthropic/claude-sonnet-4-5",
			Temperature: &temp,
			MaxSteps:    30,
			Tools: schema.NewToolAccess(
				schema.ToolRule{Tool: "bash", Rule: schema.PermissionRule{Patterns: []schema.PatternRule{
					{Pattern: "*", Kind: schema.RuleAsk},
					{Pattern: "git tag*", Kind: schema.RuleAllow},
				}}},
				schema.ToolRule{Tool: "read", Rule: schema.PermissionRule{Kind: schema.RuleAllow}},
			),
			Hooks: []schema.HookDefinition{
				{Event: schema.HookBeforeToolCall, Matcher: "bash", Command: "./guard.sh"},
				{Event: schema.HookSessionEnd, Command: "./cleanup.sh"},
			},
			Skills:       []schema.SkillReference{{Name: "changelog"}},
			Dependencies: []schema.DependencyReference{{Path: "agents/tester.md", Kind: schema.DependencyAgent}},
			Context:      []schema.ContextReference{{Path: "RELEASING.md"}},
		},
		Body: "# Release manager\n\nCut releases carefully.\n",
	}
}

func TestAdapters_AreStableNamedValues(t *testing.T) {
	for _, a := range Builtins() {
		assert.NoError(t, schema.ValidName(a.Name()))
		assert.NotEmpty(t, a.DisplayName())
		assert.NotEmpty(t, a.Capabilities().OutputDir)
	}
}

func TestOpenAgents_RoundTrip(t *testing.T) {
	oa := NewOpenAgents()
	agent := everythingAgent()

	out := oa.FromOAC(context.Background(), agent)
	require.True(t, out.Success, out.Errors)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, ".opencode/agent/release-manager.md", out.Data.Path)

	back := oa.ToOAC(context.Background(), out.Data.Content)
	require.True(t, back.Success, back.Errors)
	assert.Empty(t, back.Warnings)
	assert.True(t, agent.Equal(back.Data))
	assert.NotSame(t, agent, back.Data)
}

func TestOpenAgents_ToOAC_ReportsViolations(t *testing.T) {
	res := NewOpenAgents().ToOAC(context.Background(), "---\nname: Bad Name\ntemperature: 3\n---\n")
	assert.False(t, res.Success)
	assert.Nil(t, res.Data)
	require.Len(t, res.Errors, 2)
	assert.True(t, strings.HasPrefix(res.Errors[0], "name"))
	assert.True(t, strings.HasPrefix(res.Errors[1], "temperature"))
}

// Every canonical feature an adapter cannot carry must be named in a
// warning of its own.
func TestAdapters_FromOAC_ReportsEveryLoss(t *testing.T) {
	agent := everythingAgent()
	for _, a := range Builtins() {
		t.Run(a.Name(), func(t *testing.T) {
			res := a.FromOAC(context.Background(), agent)
			require.True(t, res.Success, res.Errors)

			caps := a.Capabilities()
			for _, f := range caps.Unsupported(agent.Features()) {
				assert.True(t, hasWarning(res.Warnings, string(f)+": "), "no warning for %s in %v", f, res.Warnings)
			}
			if len(caps.Unsupported(agent.Features())) == 0 {
				assert.Empty(t, res.Warnings)
			}
		})
	}
}

func TestAdapters_FromOAC_DoesNotMutateInput(t *testing.T) {
	agent := everythingAgent()
	snapshot := agent.Clone()
	for _, a := range Builtins() {
		a.FromOAC(context.Background(), agent)
	}
	assert.Equal(t, snapshot, agent)
}

func TestAdapters_FromOAC_RejectsInvalidAgents(t *testing.T) {
	invalid := everythingAgent()
	invalid.Metadata.Name = ""

	for _, a := range Builtins() {
		res := a.FromOAC(context.Background(), invalid)
		assert.False(t, res.Success, a.Name())
		assert.NotEmpty(t, res.Errors, a.Name())

		res = a.FromOAC(context.Background(), nil)
		assert.False(t, res.Success, a.Name())
	}
}

func TestTranslate(t *testing.T) {
	cursorRule := "---\ndescription: Go style guide\nglobs: \"**/*.go\"\nalwaysApply: false\n---\n# Go Style\n\nUse gofmt.\n"

	res := Translate(context.Background(), NewCursor(), NewClaude(), cursorRule)
	require.True(t, res.Success, res.Errors)
	assert.Equal(t, ".claude/agents/go-style.md", res.Data.Path)
	assert.Contains(t, res.Data.Content, "name: go-style\ndescription: Go style guide\n")
	assert.True(t, hasWarning(res.Warnings, "globs: "), "warnings of the first step are kept")

	failed := Translate(context.Background(), NewCursor(), NewClaude(), "no heading and no description\n")
	assert.False(t, failed.Success)
	assert.NotEmpty(t, failed.Errors)

	noDescription := Translate(context.Background(), NewCursor(), NewClaude(), "# Terse\n\nBody\n")
	assert.False(t, noDescription.Success)
	assert.Contains(t, noDescription.Errors[0], "description")
}

func TestObserve_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	NewClaude().ToOAC(context.Background(), "---\nname: x\n---\n")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "adapters.to_oac", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("oac.adapter", "claude"))
	assert.Contains(t, spans[0].Attributes, attribute.Int("oac.errors", 1))
}

func TestParseSource(t *testing.T) {
	src, err := parseSource("\ufeff---\nb: 1\na: [x, y]\n---\nIntro\n\n# The *Main* `Title`\n\n# Second\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, src.keys())
	assert.Equal(t, "The Main Title", src.title)
	assert.Equal(t, "Intro\n\n# The *Main* `Title`\n\n# Second\n", src.body)

	v, ok := src.get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, list(v))

	plain, err := parseSource("just text")
	require.NoError(t, err)
	assert.Empty(t, plain.items)
	assert.Equal(t, "just text", plain.body)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Code Reviewer":           "code-reviewer",
		"  API -- Helper!  ":      "api-helper",
		"Ünïcode only":            "n-code-only",
		"release_manager v2":      "release-manager-v2",
		"":                        "",
		"!!!":                     "",
		strings.Repeat("ab ", 40): strings.Repeat("ab-", 21) + "a",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
}
