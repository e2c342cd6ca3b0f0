package schema

import (
	"github.com/invopop/jsonschema"
)

// frontmatterDocument mirrors the on-disk frontmatter layout. It exists only
// to be reflected into a JSON schema for editors and external validators.
type frontmatterDocument struct {
	Name         string          `json:"name" jsonschema:"description=Unique agent identifier (lowercase slug),pattern=^[a-z0-9]+(?:[-_][a-z0-9]+)*$,maxLength=64"`
	Description  string          `json:"description,omitempty" jsonschema:"description=What the agent does and when to use it"`
	Version      string          `json:"version,omitempty" jsonschema:"description=Strict semantic version of the agent definition"`
	Author       string          `json:"author,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Mode         string          `json:"mode,omitempty" jsonschema:"enum=primary,enum=subagent,enum=all"`
	Model        string          `json:"model,omitempty" jsonschema:"description=<provider>/<model> or one of sonnet opus haiku"`
	Temperature  *float64        `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
	MaxSteps     int             `json:"max_steps,omitempty" jsonschema:"minimum=1"`
	Tools        toolsDocument   `json:"tools,omitempty"`
	Hooks        []hookDocument  `json:"hooks,omitempty"`
	Skills       []referenceItem `json:"skills,omitempty" jsonschema:"description=Skill names or {name path} mappings"`
	Dependencies []referenceItem `json:"dependencies,omitempty" jsonschema:"description=Relative paths or {path kind} mappings"`
	Context      []referenceItem `json:"context,omitempty" jsonschema:"description=Relative paths or {path description} mappings"`
}

type hookDocument struct {
	Event   string `json:"event" jsonschema:"enum=before_tool_call,enum=after_tool_call,enum=user_message_send,enum=agent_stop,enum=session_start,enum=session_end"`
	Matcher string `json:"matcher,omitempty"`
	Command string `json:"command" jsonschema:"minLength=1"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"minimum=0"`
}

type toolsDocument struct{}

// JSONSchema describes the two accepted shapes of the tools field
func (toolsDocument) JSONSchema() *jsonschema.Schema {
	kind := func() *jsonschema.Schema {
		return &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				{Type: "string", Enum: []any{string(RuleAllow), string(RuleDeny), string(RuleAsk)}},
				{Type: "boolean"},
			},
		}
	}
	one := uint64(1)
	granular := &jsonschema.Schema{
		Type:                 "object",
		MinProperties:        &one,
		AdditionalProperties: kind(),
	}
	rule := kind()
	rule.OneOf = append(rule.OneOf, granular)

	return &jsonschema.Schema{
		Description: "true or false for every tool, or a mapping of tool name to permission",
		OneOf: []*jsonschema.Schema{
			{Type: "boolean"},
			{Type: "object", AdditionalProperties: rule},
		},
	}
}

type referenceItem struct{}

// JSONSchema accepts either a bare string or a small mapping
func (referenceItem) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", MinLength: uint64Ptr(1)},
			{Type: "object"},
		},
	}
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// JSONSchema returns the JSON schema of the canonical frontmatter block.
// It captures the structural rules only; semantic checks such as semver
// parsing or path containment are left to Decode.
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&frontmatterDocument{})
	s.Title = "OpenAgents Control agent frontmatter"
	return s
}
