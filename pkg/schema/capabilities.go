package schema

import "slices"

// Feature names a canonical capability an adapter may or may not be able to
// carry into its target format.
type Feature string

// Canonical features
const (
	FeatureModel        Feature = "model"
	FeatureTemperature  Feature = "temperature"
	FeatureMaxSteps     Feature = "max_steps"
	FeatureTools        Feature = "tools"
	FeaturePermissions  Feature = "permissions"
	FeatureHooks        Feature = "hooks"
	FeatureSkills       Feature = "skills"
	FeatureContext      Feature = "context"
	FeatureDependencies Feature = "dependencies"
	FeatureVersion      Feature = "version"
	FeatureMode         Feature = "mode"
	FeatureAuthoring    Feature = "authoring"
)

// AllFeatures returns every canonical feature in a stable order
func AllFeatures() []Feature {
	return []Feature{
		FeatureModel,
		FeatureTemperature,
		FeatureMaxSteps,
		FeatureTools,
		FeaturePermissions,
		FeatureHooks,
		FeatureSkills,
		FeatureContext,
		FeatureDependencies,
		FeatureVersion,
		FeatureMode,
		FeatureAuthoring,
	}
}

// ToolCapabilities declares what an adapter can round-trip and where its
// documents usually live.
type ToolCapabilities struct {
	Features     []Feature `json:"features"`
	ConfigFormat string    `json:"configFormat"`
	OutputDir    string    `json:"outputDir"`
	Notes        string    `json:"notes,omitempty"`
}

// Supports reports whether the feature is declared
func (c ToolCapabilities) Supports(f Feature) bool {
	return slices.Contains(c.Features, f)
}

// Unsupported returns the features in fs that are not declared
func (c ToolCapabilities) Unsupported(fs []Feature) []Feature {
	var missing []Feature
	for _, f := range fs {
		if !c.Supports(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Clone returns a copy that shares no memory with c
func (c ToolCapabilities) Clone() ToolCapabilities {
	c.Features = slices.Clone(c.Features)
	return c
}
