package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openagents-control/oac/pkg/adapters"
	"github.com/openagents-control/oac/pkg/loader"
	"github.com/openagents-control/oac/pkg/presenter"
	"github.com/openagents-control/oac/pkg/syncer"
)

// SyncConfig holds configuration for the sync command
type SyncConfig struct {
	Dir          string
	Targets      []string
	OutputDir    string
	DryRun       bool
	Watch        bool
	DebounceTime int
}

// NewSyncConfig creates a SyncConfig from the resolved configuration
func NewSyncConfig() *SyncConfig {
	return &SyncConfig{
		Dir:          cfg.AgentDir,
		Targets:      cfg.Targets,
		OutputDir:    cfg.OutputDir,
		DebounceTime: int(syncer.DefaultDebounce / time.Millisecond),
	}
}

var syncCmd = &cobra.Command{
	Use:   "sync [dir]",
	Short: "Convert every agent in a directory for every target tool",
	Long: `Load every agent under dir (the configured agent_dir by default), convert
each one for every target and write the files that changed.

--dry-run shows a unified diff of every change without writing anything.
--watch keeps running and syncs again whenever an agent file changes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getSyncConfigFromFlags(cmd, args)

		l, err := newLoader()
		if err != nil {
			presenter.Error(err, "Invalid loader configuration")
			exitCode = 1
			return
		}
		s, err := newSyncer(newRegistry(), l, config)
		if err != nil {
			presenter.Error(err, "Invalid sync configuration")
			exitCode = 1
			return
		}

		report, err := s.Run(ctx, config.Dir)
		if err != nil {
			presenter.Error(err, "Sync failed")
			exitCode = 1
			return
		}
		printSyncReport(report, config.DryRun)
		if !config.Watch {
			if report.Failed() {
				exitCode = 1
			}
			return
		}

		presenter.Info("Watching for agent changes... Press Ctrl+C to stop")
		err = s.Watch(ctx, config.Dir, time.Duration(config.DebounceTime)*time.Millisecond, func(report *syncer.Report, err error) {
			if err != nil {
				presenter.Error(err, "Sync failed")
				return
			}
			printSyncReport(report, config.DryRun)
		})
		if err != nil {
			presenter.Error(err, "Failed to watch agent files")
			exitCode = 1
		}
	},
}

func init() {
	syncCmd.Flags().StringSlice("targets", nil, "Adapters to convert to (default from config, claude)")
	syncCmd.Flags().String("output-dir", "", "Directory the target paths are resolved against (default from config, .)")
	syncCmd.Flags().Bool("dry-run", false, "Show what would change without writing")
	syncCmd.Flags().BoolP("watch", "w", false, "Sync again whenever an agent file changes")
	syncCmd.Flags().IntP("debounce", "d", int(syncer.DefaultDebounce/time.Millisecond), "Debounce time in milliseconds for file change events")

	v.BindPFlag("targets", syncCmd.Flags().Lookup("targets"))
	v.BindPFlag("output_dir", syncCmd.Flags().Lookup("output-dir"))
}

// getSyncConfigFromFlags extracts sync configuration from command flags.
// targets and output-dir reach the config through viper.
func getSyncConfigFromFlags(cmd *cobra.Command, args []string) *SyncConfig {
	config := NewSyncConfig()

	if len(args) > 0 {
		config.Dir = args[0]
	}
	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil {
		config.DryRun = dryRun
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounce
	}

	return config
}

func newSyncer(registry *adapters.Registry, l *loader.Loader, config *SyncConfig) (*syncer.Syncer, error) {
	opts := []syncer.Option{
		syncer.WithLoader(l),
		syncer.WithOutputDir(config.OutputDir),
		syncer.WithDryRun(config.DryRun),
	}
	for _, name := range config.Targets {
		opts = append(opts, syncer.WithAdapterOutputDir(name, cfg.AdapterOutputDir(name, "")))
	}
	return syncer.New(registry, config.Targets, opts...)
}

func printSyncReport(report *syncer.Report, dryRun bool) {
	for _, r := range loader.Failures(report.Results) {
		presenter.Violations(r.Err)
	}

	changed := 0
	for _, o := range report.Outputs {
		label := fmt.Sprintf("%s → %s", o.Agent, o.Adapter)
		presenter.ConversionReport(label, o.Warnings, o.Errors)
		if !o.OK() || !o.Changed {
			continue
		}
		changed++
		switch {
		case dryRun:
			presenter.Diff(o.Diff)
		case o.Written:
			presenter.Success(fmt.Sprintf("Wrote %s", o.Path))
		}
	}

	if changed == 0 {
		presenter.Info("Everything is up to date")
		return
	}
	if dryRun {
		presenter.Info(fmt.Sprintf("%d files would change", changed))
	}
}
