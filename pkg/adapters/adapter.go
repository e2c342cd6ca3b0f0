// Package adapters converts agents between the canonical OAC format and the
// agent or rule formats of other AI coding tools. Every conversion reports
// what it could not carry over instead of failing, and fails only when no
// usable output can be produced at all.
package adapters

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/openagents-control/oac/pkg/logger"
	"github.com/openagents-control/oac/pkg/schema"
	"github.com/openagents-control/oac/pkg/telemetry"
)

// Document is a converted agent in a tool's native format
type Document struct {
	// Path is the conventional location of the document, relative to the
	// project root, using forward slashes.
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Adapter converts between one external tool format and the canonical
// agent. Implementations hold no mutable state and are safe for concurrent
// use.
type Adapter interface {
	// Name is the registry key, a stable lowercase slug
	Name() string
	// DisplayName is the human readable tool name
	DisplayName() string
	// Capabilities declares which canonical features survive FromOAC
	Capabilities() schema.ToolCapabilities
	// ToOAC parses a native document into a canonical agent
	ToOAC(ctx context.Context, source string) schema.ConversionResult[*schema.OpenAgent]
	// FromOAC renders a canonical agent as a native document
	FromOAC(ctx context.Context, agent *schema.OpenAgent) schema.ConversionResult[Document]
}

// AdapterInfo describes a registered adapter
type AdapterInfo struct {
	Name         string                  `json:"name"`
	DisplayName  string                  `json:"displayName"`
	Capabilities schema.ToolCapabilities `json:"capabilities"`
}

func infoOf(a Adapter) AdapterInfo {
	return AdapterInfo{
		Name:         a.Name(),
		DisplayName:  a.DisplayName(),
		Capabilities: a.Capabilities().Clone(),
	}
}

// Translate converts a document from one tool format into another by way
// of the canonical agent. Warnings of both steps are kept in order.
func Translate(ctx context.Context, from, to Adapter, source string) schema.ConversionResult[Document] {
	in := from.ToOAC(ctx, source)
	if !in.Success {
		return schema.ConversionResult[Document]{
			Warnings: in.Warnings,
			Errors:   in.Errors,
		}
	}

	out := to.FromOAC(ctx, in.Data)
	out.Warnings = append(append([]string(nil), in.Warnings...), out.Warnings...)
	return out
}

const (
	directionToOAC   = "to_oac"
	directionFromOAC = "from_oac"
)

// observe runs a conversion inside a span and logs its outcome
func observe[T any](ctx context.Context, adapter, direction string, fn func(ctx context.Context) schema.ConversionResult[T]) schema.ConversionResult[T] {
	ctx, span := telemetry.Tracer().Start(ctx, "adapters."+direction)
	defer span.End()

	res := fn(ctx)

	telemetry.RecordConversion(ctx, adapter, direction, len(res.Warnings), len(res.Errors))
	logger.G(ctx).WithFields(logrus.Fields{
		"adapter":   adapter,
		"direction": direction,
		"warnings":  len(res.Warnings),
		"errors":    len(res.Errors),
	}).Debug("conversion finished")
	return res
}

// checkAgent rejects input that no adapter can render
func checkAgent(r *schema.Report, agent *schema.OpenAgent) bool {
	if agent == nil {
		r.Fail("no agent to convert")
		return false
	}
	if err := agent.Validate(); err != nil {
		r.FailErr(err)
		return false
	}
	return true
}

// dropUnsupported warns once for every feature agent uses that caps does
// not declare. skip lists features the caller reports on in more detail.
func dropUnsupported(r *schema.Report, agent *schema.OpenAgent, caps schema.ToolCapabilities, display string, skip ...schema.Feature) {
	for _, f := range caps.Unsupported(agent.Features()) {
		if slices.Contains(skip, f) {
			continue
		}
		r.Drop(f, "%s not supported by %s; dropped", describe(agent, f), display)
	}
}

// describe names the concrete value behind a feature for warning texts
func describe(agent *schema.OpenAgent, f schema.Feature) string {
	fm, md := agent.Frontmatter, agent.Metadata
	switch f {
	case schema.FeatureModel:
		return fmt.Sprintf("model %q", fm.Model)
	case schema.FeatureTemperature:
		return fmt.Sprintf("temperature %v", *fm.Temperature)
	case schema.FeatureMaxSteps:
		return fmt.Sprintf("max_steps %d", fm.MaxSteps)
	case schema.FeatureTools:
		return "tool access rules"
	case schema.FeaturePermissions:
		return "granular permissions"
	case schema.FeatureHooks:
		return fmt.Sprintf("%d hook(s)", len(fm.Hooks))
	case schema.FeatureSkills:
		return fmt.Sprintf("%d skill reference(s)", len(fm.Skills))
	case schema.FeatureContext:
		return fmt.Sprintf("%d context reference(s)", len(fm.Context))
	case schema.FeatureDependencies:
		return fmt.Sprintf("%d dependency reference(s)", len(fm.Dependencies))
	case schema.FeatureVersion:
		return fmt.Sprintf("version %s", md.Version)
	case schema.FeatureMode:
		return fmt.Sprintf("mode %s", md.Mode)
	case schema.FeatureAuthoring:
		return "author and tags"
	}
	return string(f)
}
