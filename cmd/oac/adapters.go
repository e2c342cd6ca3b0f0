package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openagents-control/oac/pkg/adapters"
	"github.com/openagents-control/oac/pkg/presenter"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List the available tool formats and what each one supports",
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		if err := listAdapters(newRegistry(), asJSON, os.Stdout); err != nil {
			presenter.Error(err, "Failed to list adapters")
			exitCode = 1
		}
	},
}

func init() {
	adaptersCmd.Flags().Bool("json", false, "Output as JSON")
}

func listAdapters(registry *adapters.Registry, asJSON bool, w io.Writer) error {
	infos := registry.Infos()

	if asJSON {
		out, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tTOOL\tFORMAT\tOUTPUT DIR\tFEATURES")
	fmt.Fprintln(tw, "----\t----\t------\t----------\t--------")

	for _, info := range infos {
		features := make([]string, len(info.Capabilities.Features))
		for i, f := range info.Capabilities.Features {
			features[i] = string(f)
		}
		featureList := strings.Join(features, ", ")
		if featureList == "" {
			featureList = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			info.Name, info.DisplayName, info.Capabilities.ConfigFormat, info.Capabilities.OutputDir, featureList)
	}

	return tw.Flush()
}
