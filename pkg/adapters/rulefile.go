package adapters

import (
	"fmt"
	"slices"
	"strings"

	"github.com/openagents-control/oac/pkg/schema"
)

// Cursor and Windsurf store plain instruction rules rather than agents: a
// rule has no name field and is named after its file, so the name travels
// as a "# <name>" line in front of the body.

// ruleBody returns the body to write for agent, led by its name heading
func ruleBody(agent *schema.OpenAgent) string {
	return fmt.Sprintf("# %s\n\n%s", agent.Metadata.Name, agent.Body)
}

// nameHeading splits the heading written by ruleBody off body. The first
// line must be a level 1 heading whose text is a valid agent name.
func nameHeading(body string) (name, rest string, ok bool) {
	line, rest, _ := strings.Cut(body, "\n")
	title, isHeading := strings.CutPrefix(line, "# ")
	if !isHeading || schema.ValidName(title) != nil {
		return "", body, false
	}
	return title, strings.TrimPrefix(rest, "\n"), true
}

// ruleAgent builds the canonical agent for a parsed rule document. The name
// is taken verbatim from a leading name heading, which is then removed from
// the body. Other documents are named after the slug of their first level 1
// heading, falling back to the description, and keep their body as is.
func ruleAgent(r *schema.Report, src *source, known []string) *schema.OpenAgent {
	description, _ := src.str("description")

	name, body, carried := nameHeading(src.body)
	if !carried {
		name = slugify(src.title)
	}
	if name == "" {
		name = slugify(description)
	}
	if name == "" {
		r.Fail("name: cannot derive an agent name; add a level 1 heading or a description")
		return nil
	}

	for _, key := range src.keys() {
		if !slices.Contains(known, key) {
			r.Warn("%s: no canonical equivalent; dropped", key)
		}
	}

	agent := &schema.OpenAgent{
		Metadata: schema.Metadata{Name: name, Description: description},
		Body:     body,
	}
	if err := agent.Validate(); err != nil {
		r.FailErr(err)
		return nil
	}
	return agent
}
