package adapters

import (
	"context"
	"path"

	"github.com/openagents-control/oac/pkg/loader"
	"github.com/openagents-control/oac/pkg/schema"
)

// OpenAgents reads and writes the canonical format itself. Every feature
// survives, so conversions never warn.
type OpenAgents struct{}

// NewOpenAgents returns the canonical format adapter
func NewOpenAgents() *OpenAgents { return &OpenAgents{} }

func (*OpenAgents) Name() string        { return "openagents" }
func (*OpenAgents) DisplayName() string { return "OpenAgents Control" }

func (*OpenAgents) Capabilities() schema.ToolCapabilities {
	return schema.ToolCapabilities{
		Features:     schema.AllFeatures(),
		ConfigFormat: "markdown+yaml",
		OutputDir:    ".opencode/agent",
	}
}

func (a *OpenAgents) ToOAC(ctx context.Context, source string) schema.ConversionResult[*schema.OpenAgent] {
	return observe(ctx, a.Name(), directionToOAC, func(context.Context) schema.ConversionResult[*schema.OpenAgent] {
		var r schema.Report
		agent, err := loader.Parse(source, "")
		if err != nil {
			r.FailErr(err)
			return schema.Failure[*schema.OpenAgent](&r)
		}
		return schema.Result(&r, agent)
	})
}

func (a *OpenAgents) FromOAC(ctx context.Context, agent *schema.OpenAgent) schema.ConversionResult[Document] {
	return observe(ctx, a.Name(), directionFromOAC, func(context.Context) schema.ConversionResult[Document] {
		var r schema.Report
		if !checkAgent(&r, agent) {
			return schema.Failure[Document](&r)
		}
		content, err := loader.Render(agent)
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
