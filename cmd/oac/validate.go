package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openagents-control/oac/pkg/loader"
	"github.com/openagents-control/oac/pkg/presenter"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate agent definition files",
	Long: `Validate agent definition files against the OpenAgents Control schema.

Each path may be a file or a directory; directories are searched recursively
for files with one of the configured extensions. Without arguments the
configured agent_dir is validated. Exits non-zero if any agent is invalid.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		l, err := newLoader()
		if err != nil {
			presenter.Error(err, "Invalid loader configuration")
			exitCode = 1
			return
		}

		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.AgentDir}
		}

		summary := runValidate(ctx, l, paths)
		if summary.Failed > 0 {
			presenter.Warning(fmt.Sprintf("%d of %d agent files are invalid", summary.Failed, summary.Total()))
			exitCode = 1
			return
		}
		presenter.Success(fmt.Sprintf("%d agent files are valid", summary.Valid))
	},
}

// ValidateSummary counts the outcome of a validate run
type ValidateSummary struct {
	Valid  int
	Failed int
}

// Total is the number of files looked at
func (s ValidateSummary) Total() int { return s.Valid + s.Failed }

func runValidate(ctx context.Context, l *loader.Loader, paths []string) ValidateSummary {
	var summary ValidateSummary
	report := func(r loader.Result) {
		if r.Err != nil {
			summary.Failed++
			presenter.Violations(r.Err)
			return
		}
		summary.Valid++
		presenter.Info(fmt.Sprintf("[OK] %s (%s)", r.Path, r.Agent.Metadata.Name))
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			agent, err := l.LoadAgent(ctx, path)
			report(loader.Result{Path: path, Agent: agent, Err: err})
			continue
		}

		results, err := l.LoadAgents(ctx, path)
		if err != nil {
			summary.Failed++
			presenter.Error(err, "Failed to load agent directory")
			continue
		}
		for _, r := range results {
			report(r)
		}
	}
	return summary
}
