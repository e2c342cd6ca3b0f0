package presenter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/openagents-control/oac/pkg/loader"
	"github.com/openagents-control/oac/pkg/schema"
)

func newTestTerminal() (*Terminal, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return NewWithOptions(&stdout, &stderr, ColorNever), &stdout, &stderr
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name     string
		noColor  string
		oacColor string
		expected ColorMode
	}{
		{"NO_COLOR wins", "1", "always", ColorNever},
		{"always", "", "always", ColorAlways},
		{"force", "", "force", ColorAlways},
		{"never", "", "never", ColorNever},
		{"off", "", "off", ColorNever},
		{"unset", "", "", ColorAuto},
		{"unknown value", "", "rainbow", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("OAC_COLOR", tt.oacColor)
			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestNewWithOptions_ColorMode(t *testing.T) {
	old := color.NoColor
	t.Cleanup(func() { color.NoColor = old })

	NewWithOptions(&bytes.Buffer{}, &bytes.Buffer{}, ColorAlways)
	assert.False(t, color.NoColor)

	p := NewWithOptions(&bytes.Buffer{}, &bytes.Buffer{}, ColorNever)
	assert.True(t, color.NoColor)
	assert.Equal(t, ColorNever, p.colorMode)
}

func TestTerminal_Error(t *testing.T) {
	p, _, stderr := newTestTerminal()

	p.Error(errors.New("permission denied"), "Sync failed")
	p.Error(errors.New("bare"), "")
	p.Error(nil, "ignored")

	assert.Equal(t, "[ERROR] Sync failed: permission denied\n[ERROR] bare\n", stderr.String())
}

func TestTerminal_StatusLines(t *testing.T) {
	p, stdout, stderr := newTestTerminal()

	p.Success("Wrote .claude/agents/reviewer.md")
	p.Warning("1 of 3 agent files are invalid")
	p.Info("Everything is up to date")

	assert.Equal(t, "✓ Wrote .claude/agents/reviewer.md\n⚠ 1 of 3 agent files are invalid\nEverything is up to date\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestTerminal_ConversionReport(t *testing.T) {
	p, stdout, stderr := newTestTerminal()

	p.ConversionReport("reviewer → cursor",
		[]string{"model: Cursor cannot express anthropic/claude-sonnet-4-5; dropped"},
		[]string{"description: required"},
	)
	assert.Equal(t, "  ⚠ reviewer → cursor: model: Cursor cannot express anthropic/claude-sonnet-4-5; dropped\n", stdout.String())
	assert.Equal(t, "  ✗ reviewer → cursor: description: required\n", stderr.String())
}

func TestTerminal_Violations(t *testing.T) {
	p, _, stderr := newTestTerminal()

	ve := &schema.ValidationError{
		Path: "agents/bad.md",
		Violations: []schema.Violation{
			{Field: "name", Message: "is required", Line: 2},
			{Field: "tools.bash", Message: `unknown permission kind "maybe"`},
		},
	}
	p.Violations(&loader.AgentLoadError{Path: "agents/bad.md", Err: ve})
	assert.Equal(t, "[INVALID] agents/bad.md\n  - name: is required (line 2)\n  - tools.bash: unknown permission kind \"maybe\"\n", stderr.String())

	stderr.Reset()
	p.Violations(&schema.ValidationError{Violations: []schema.Violation{{Field: "name", Message: "is required"}}})
	assert.Equal(t, "[INVALID] invalid agent\n  - name: is required\n", stderr.String())

	stderr.Reset()
	p.Violations(errors.New("read failed"))
	assert.Equal(t, "[ERROR] read failed\n", stderr.String())

	stderr.Reset()
	p.Violations(nil)
	assert.Empty(t, stderr.String())
}

func TestTerminal_Diff(t *testing.T) {
	p, stdout, _ := newTestTerminal()
	p.SetQuiet(true)

	diff := "--- a.md\n+++ a.md\n@@ -1,2 +1,2 @@\n name: a\n-old\n+new\n"
	p.Diff(diff)
	assert.Equal(t, diff, stdout.String())
}

func TestTerminal_Quiet(t *testing.T) {
	p, stdout, stderr := newTestTerminal()
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("s")
	p.Warning("w")
	p.Info("i")
	p.ConversionReport("claude", []string{"dropped"}, []string{"fatal"})
	p.Error(errors.New("still shown"), "")

	assert.Empty(t, stdout.String())
	assert.Equal(t, "  ✗ claude: fatal\n[ERROR] still shown\n", stderr.String())

	p.SetQuiet(false)
	assert.False(t, p.IsQuiet())
}

func TestDefaultPresenter(t *testing.T) {
	original := defaultPresenter
	p, stdout, stderr := newTestTerminal()
	defaultPresenter = p
	t.Cleanup(func() { defaultPresenter = original })

	Success("done")
	Warning("careful")
	Info("note")
	ConversionReport("agent", []string{"w"}, nil)
	Diff("+added\n")
	Error(errors.New("boom"), "ctx")
	Violations(&schema.ValidationError{Path: "x.md"})

	assert.Equal(t, "✓ done\n⚠ careful\nnote\n  ⚠ agent: w\n+added\n", stdout.String())
	assert.Equal(t, "[ERROR] ctx: boom\n[INVALID] x.md\n", stderr.String())

	SetQuiet(true)
	assert.True(t, IsQuiet())
	SetQuiet(false)
}
