package schema

import (
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func compileFrontmatterSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	raw, err := json.Marshal(JSONSchema())
	require.NoError(t, err)

	sch, err := jsonschema.CompileString("frontmatter.schema.json", string(raw))
	require.NoError(t, err)
	return sch
}

// yamlToJSONValue converts a YAML document into the generic values the
// validator expects.
func yamlToJSONValue(t *testing.T, src string) any {
	t.Helper()
	var v any
	require.NoError(t, yaml.Unmarshal([]byte(src), &v))
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestJSONSchema_AcceptsValidFrontmatter(t *testing.T) {
	sch := compileFrontmatterSchema(t)

	docs := []string{
		"name: minimal\n",
		`name: reviewer
description: Reviews code
mode: subagent
temperature: 0.5
max_steps: 10
tools:
  read: true
  write: deny
  bash:
    "git *": allow
    "*": ask
hooks:
  - event: agent_stop
    command: ./notify.sh
skills:
  - git
  - name: lint
    path: skills/lint
`,
		"name: locked\ntools: false\n",
	}
	for _, doc := range docs {
		assert.NoError(t, sch.Validate(yamlToJSONValue(t, doc)), doc)
	}
}

func TestJSONSchema_RejectsInvalidFrontmatter(t *testing.T) {
	sch := compileFrontmatterSchema(t)

	docs := map[string]string{
		"missing name":       "description: nameless\n",
		"unknown field":      "name: a\ncolour: red\n",
		"bad slug":           "name: Not A Slug\n",
		"temperature range":  "name: a\ntemperature: 5\n",
		"bad permission":     "name: a\ntools:\n  bash: maybe\n",
		"tools string":       "name: a\ntools: all\n",
		"empty granular":     "name: a\ntools:\n  bash: {}\n",
		"bad hook event":     "name: a\nhooks:\n  - event: on_save\n    command: x\n",
		"hook extra field":   "name: a\nhooks:\n  - event: agent_stop\n    command: x\n    shell: zsh\n",
		"mode not in enum":   "name: a\nmode: background\n",
		"max steps negative": "name: a\nmax_steps: -1\n",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, sch.Validate(yamlToJSONValue(t, doc)))
		})
	}
}
