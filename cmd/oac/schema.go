package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/openagents-control/oac/pkg/presenter"
	"github.com/openagents-control/oac/pkg/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the agent frontmatter",
	Long: `Print the JSON schema of the OpenAgents Control frontmatter, for use by
editors and other tooling that validates agent files.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := printSchema(os.Stdout); err != nil {
			presenter.Error(err, "Failed to generate schema")
			exitCode = 1
		}
	},
}

func printSchema(w io.Writer) error {
	out, err := json.MarshalIndent(schema.JSONSchema(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
