// Package syncer keeps tool specific agent files in step with a directory of
// canonical agents: every agent is converted for every target adapter and
// the results are diffed against, and written over, what is on disk.
package syncer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openagents-control/oac/pkg/adapters"
	"github.com/openagents-control/oac/pkg/loader"
	"github.com/openagents-control/oac/pkg/logger"
	"github.com/openagents-control/oac/pkg/schema"
	"github.com/openagents-control/oac/pkg/telemetry"
)

// Output is one agent converted for one target
type Output struct {
	Agent    string
	Adapter  string
	Path     string // on disk, empty when the conversion failed
	Content  string
	Warnings []string
	Errors   []string
	Changed  bool   // Content differs from the file on disk
	Diff     string // unified diff against the file on disk
	Written  bool
}

// OK reports whether the conversion succeeded
func (o Output) OK() bool { return len(o.Errors) == 0 }

// Report is the outcome of one sync run
type Report struct {
	Results []loader.Result
	Outputs []Output
}

// Failed reports whether any agent failed to load or convert
func (r *Report) Failed() bool {
	if len(loader.Failures(r.Results)) > 0 {
		return true
	}
	for _, o := range r.Outputs {
		if !o.OK() {
			return true
		}
	}
	return false
}

// Written returns the number of files written
func (r *Report) Written() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Written {
			n++
		}
	}
	return n
}

// Syncer converts canonical agents for a fixed set of targets
type Syncer struct {
	registry   *adapters.Registry
	loader     *loader.Loader
	targets    []adapters.Adapter
	outputDir  string
	outputDirs map[string]string
	dryRun     bool
}

// Option configures a Syncer
type Option func(*Syncer) error

// WithLoader sets the loader used to read the agent directory
func WithLoader(l *loader.Loader) Option {
	return func(s *Syncer) error {
		if l == nil {
			return errors.New("loader must not be nil")
		}
		s.loader = l
		return nil
	}
}

// WithOutputDir sets the directory adapter output paths are resolved against
func WithOutputDir(dir string) Option {
	return func(s *Syncer) error {
		s.outputDir = dir
		return nil
	}
}

// WithAdapterOutputDir overrides the output directory of one adapter
func WithAdapterOutputDir(adapter, dir string) Option {
	return func(s *Syncer) error {
		if dir != "" {
			s.outputDirs[adapter] = dir
		}
		return nil
	}
}

// WithDryRun computes diffs without writing anything
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) error {
		s.dryRun = dryRun
		return nil
	}
}

// New creates a syncer converting to targets, which must all be registered
// in registry.
func New(registry *adapters.Registry, targets []string, opts ...Option) (*Syncer, error) {
	if len(targets) == 0 {
		return nil, errors.New("at least one target must be specified")
	}

	s := &Syncer{
		registry:   registry,
		outputDir:  ".",
		outputDirs: make(map[string]string),
	}
	for _, name := range targets {
		a, ok := registry.Get(name)
		if !ok {
			return nil, errors.Errorf("unknown target %q (available: %v)", name, registry.List())
		}
		s.targets = append(s.targets, a)
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "failed to configure syncer")
		}
	}
	if s.loader == nil {
		l, err := loader.New()
		if err != nil {
			return nil, err
		}
		s.loader = l
	}
	return s, nil
}

func (s *Syncer) dirFor(adapter string) string {
	if dir, ok := s.outputDirs[adapter]; ok {
		return dir
	}
	return s.outputDir
}

// Plan converts every agent for every target and diffs the result against
// the file currently on disk. Nothing is written.
func (s *Syncer) Plan(ctx context.Context, agents []*schema.OpenAgent) []Output {
	var outputs []Output
	for _, agent := range agents {
		for _, target := range s.targets {
			res := target.FromOAC(ctx, agent)
			out := Output{
				Agent:    agent.Metadata.Name,
				Adapter:  target.Name(),
				Warnings: res.Warnings,
				Errors:   res.Errors,
			}
			if res.Success {
				out.Path = filepath.Join(s.dirFor(target.Name()), filepath.FromSlash(res.Data.Path))
				out.Content = res.Data.Content
				s.diff(ctx, &out)
			}
			outputs = append(outputs, out)
		}
	}
	return outputs
}

func (s *Syncer) diff(ctx context.Context, out *Output) {
	current, err := os.ReadFile(out.Path)
	if err != nil && !os.IsNotExist(err) {
		logger.G(ctx).WithError(err).WithField("path", out.Path).Warn("failed to read existing output")
	}
	if bytes.Equal(current, []byte(out.Content)) && err == nil {
		return
	}
	out.Changed = true
	out.Diff = udiff.Unified(out.Path, out.Path, string(current), out.Content)
}

// Apply writes every changed output. Outputs that failed to convert are
// skipped.
func (s *Syncer) Apply(ctx context.Context, outputs []Output) error {
	for i := range outputs {
		out := &outputs[i]
		if !out.OK() || !out.Changed {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(out.Path), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory for %s", out.Path)
		}
		if err := lockedfile.Write(out.Path, bytes.NewReader([]byte(out.Content)), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %s", out.Path)
		}
		out.Written = true
		logger.G(ctx).WithFields(logrus.Fields{"path": out.Path, "adapter": out.Adapter}).Debug("wrote agent file")
	}
	return nil
}

// Run loads every agent under dir, converts them and, unless this is a dry
// run, writes the changed files.
func (s *Syncer) Run(ctx context.Context, dir string) (*Report, error) {
	report := &Report{}
	err := telemetry.WithSpan(ctx, "syncer.run", func(ctx context.Context) error {
		results, err := s.loader.LoadAgents(ctx, dir)
		if err != nil {
			return err
		}
		report.Results = results
		report.Outputs = s.Plan(ctx, loader.Agents(results))

		if !s.dryRun {
			if err := s.Apply(ctx, report.Outputs); err != nil {
				return err
			}
		}
		telemetry.SetAttributes(ctx,
			attribute.Int("oac.outputs", len(report.Outputs)),
			attribute.Int("oac.written", report.Written()),
		)
		return nil
	}, attribute.String("oac.dir", dir), attribute.Bool("oac.dry_run", s.dryRun))
	if err != nil {
		return nil, err
	}
	return report, nil
}
