package adapters

import (
	"context"
	"path"
	"strings"

	"github.com/openagents-control/oac/pkg/schema"
)

// Cursor converts to and from Cursor project rules (.cursor/rules/*.mdc)
type Cursor struct{}

// NewCursor returns the Cursor adapter
func NewCursor() *Cursor { return &Cursor{} }

func (*Cursor) Name() string        { return "cursor" }
func (*Cursor) DisplayName() string { return "Cursor" }

func (*Cursor) Capabilities() schema.ToolCapabilities {
	return schema.ToolCapabilities{
		Features:     []schema.Feature{},
		ConfigFormat: "mdc",
		OutputDir:    ".cursor/rules",
		Notes:        "rules carry instructions only; the agent is applied when its description matches",
	}
}

var cursorKeys = []string{"description", "globs", "alwaysApply"}

func (a *Cursor) FromOAC(ctx context.Context, agent *schema.OpenAgent) schema.ConversionResult[Document] {
	return observe(ctx, a.Name(), directionFromOAC, func(context.Context) schema.ConversionResult[Document] {
		var r schema.Report
		if !checkAgent(&r, agent) {
			return schema.Failure[Document](&r)
		}

		fm := newFrontmatter()
		if agent.Metadata.Description != "" {
			fm.str("description", agent.Metadata.Description)
		}
		fm.bool("alwaysApply", false)

		dropUnsupported(&r, agent, a.Capabilities(), a.DisplayName())

		content, err := fm.render(ruleBody(agent))
		if err != nil {
			r.FailErr(err)
			return schema.Failure[Document](&r)
		}
		return schema.Result(&r, Document{
			Path:    path.Join(a.Capabilities().OutputDir, agent.Metadata.Name+".mdc"),
			Content: content,
		})
	})
}

func (a *Cursor) ToOAC(ctx context.Context, source string) schema.ConversionResult[*schema.OpenAgent] {
	return observe(ctx, a.Name(), directionToOAC, func(context.Context) schema.ConversionResult[*schema.OpenAgent] {
		var r schema.Report
		src, err := parseSource(source)
		if err != nil {
			r.FailErr(err)
			return schema.Failure[*schema.OpenAgent](&r)
		}

		if v, ok := src.get("globs"); ok {
			if globs := list(v); len(globs) > 0 {
				r.Warn("globs: file-scoped activation (%s) has no canonical equivalent; dropped", strings.Join(globs, ", "))
			}
		}
		if v, ok := src.get("alwaysApply"); ok && v == true {
			r.Warn("alwaysApply: always-on activation has no canonical equivalent; dropped")
		}

		agent := ruleAgent(&r, src, cursorKeys)
		if agent == nil {
			return schema.Failure[*schema.OpenAgent](&r)
		}
		return schema.Result(&r, agent)
	})
}
