package adapters

import (
	"context"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/openagents-control/oac/pkg/schema"
)

// WindsurfMaxRuleLength is the largest rule body Windsurf accepts, in
// characters
const WindsurfMaxRuleLength = 12000

// Windsurf trigger values
const (
	triggerManual        = "manual"
	triggerModelDecision = "model_decision"
	triggerAlwaysOn      = "always_on"
	triggerGlob          = "glob"
)

// Windsurf converts to and from Windsurf workspace rules
// (.windsurf/rules/*.md)
type Windsurf struct{}

// NewWindsurf returns the Windsurf adapter
func NewWindsurf() *Windsurf { return &Windsurf{} }

func (*Windsurf) Name() string        { return "windsurf" }
func (*Windsurf) DisplayName() string { return "Windsurf" }

func (*Windsurf) Capabilities() schema.ToolCapabilities {
	return schema.ToolCapabilities{
		Features:     []schema.Feature{},
		ConfigFormat: "markdown+yaml",
		OutputDir:    ".windsurf/rules",
		Notes:        "rule bodies are limited to 12000 characters",
	}
}

var windsurfKeys = []string{"trigger", "description", "globs"}

func (a *Windsurf) FromOAC(ctx context.Context, agent *schema.OpenAgent) schema.ConversionResult[Document] {
	return observe(ctx, a.Name(), directionFromOAC, func(context.Context) schema.ConversionResult[Document] {
		var r schema.Report
		if !checkAgent(&r, agent) {
			return schema.Failure[Document](&r)
		}

		body := ruleBody(agent)
		if n := utf8.RuneCountInString(body); n > WindsurfMaxRuleLength {
			r.Fail("body: %d characters exceeds the %d character limit of %s rules", n, WindsurfMaxRuleLength, a.DisplayName())
			return schema.Failure[Document](&r)
		}

		fm := newFrontmatter()
		if agent.Metadata.Description != "" {
			fm.str("trigger", triggerModelDecision)
			fm.str("description", agent.Metadata.Description)
		} else {
			fm.str("trigger", triggerManual)
		}

		dropUnsupported(&r, agent, a.Capabilities(), a.DisplayName())

		content, err := fm.render(body)
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

func (a *Windsurf) ToOAC(ctx context.Context, source string) schema.ConversionResult[*schema.OpenAgent] {
	return observe(ctx, a.Name(), directionToOAC, func(context.Context) schema.ConversionResult[*schema.OpenAgent] {
		var r schema.Report
		src, err := parseSource(source)
		if err != nil {
			r.FailErr(err)
			return schema.Failure[*schema.OpenAgent](&r)
		}

		switch trigger, _ := src.str("trigger"); trigger {
		case "", triggerManual, triggerModelDecision:
		case triggerAlwaysOn, triggerGlob:
			r.Warn("trigger: %s activation has no canonical equivalent; dropped", trigger)
		default:
			r.Warn("trigger: unknown value %q ignored", trigger)
		}
		if v, ok := src.get("globs"); ok {
			if globs := list(v); len(globs) > 0 {
				r.Warn("globs: file-scoped activation (%s) has no canonical equivalent; dropped", strings.Join(globs, ", "))
			}
		}

		agent := ruleAgent(&r, src, windsurfKeys)
		if agent == nil {
			return schema.Failure[*schema.OpenAgent](&r)
		}
		return schema.Result(&r, agent)
	})
}
