// Package loader reads agent definition files from disk and turns them into
// validated schema.OpenAgent values. Loading is a single, side-effect free
// read; nothing is retried.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openagents-control/oac/pkg/logger"
	"github.com/openagents-control/oac/pkg/schema"
	"github.com/openagents-control/oac/pkg/telemetry"
)

// Defaults used by New
var (
	DefaultExtensions  = []string{"md"}
	DefaultConcurrency = 8
)

// Loader reads agent files. The zero value is not usable; call New.
type Loader struct {
	extensions  []string
	concurrency int
}

// Option configures a Loader
type Option func(*Loader) error

// WithExtensions sets the file extensions LoadAgents picks up
func WithExtensions(exts ...string) Option {
	return func(l *Loader) error {
		if len(exts) == 0 {
			return errors.New("at least one extension must be specified")
		}
		var cleaned []string
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext == "" || strings.ContainsAny(ext, "/{},*?[]") {
				return errors.Errorf("invalid extension %q", ext)
			}
			cleaned = append(cleaned, ext)
		}
		l.extensions = cleaned
		return nil
	}
}

// WithConcurrency bounds how many files LoadAgents reads at once
func WithConcurrency(n int) Option {
	return func(l *Loader) error {
		if n < 1 {
			return errors.Errorf("concurrency must be at least 1, got %d", n)
		}
		l.concurrency = n
		return nil
	}
}

// New creates a loader with the given options applied over the defaults
func New(opts ...Option) (*Loader, error) {
	l := &Loader{
		extensions:  append([]string(nil), DefaultExtensions...),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "failed to configure loader")
		}
	}
	return l, nil
}

var defaultLoader = &Loader{extensions: DefaultExtensions, concurrency: DefaultConcurrency}

// LoadAgent loads a single file with the default loader
func LoadAgent(ctx context.Context, path string) (*schema.OpenAgent, error) {
	return defaultLoader.LoadAgent(ctx, path)
}

// LoadAgents loads a directory with the default loader
func LoadAgents(ctx context.Context, dir string) ([]Result, error) {
	return defaultLoader.LoadAgents(ctx, dir)
}

// LoadAgent reads, splits, parses and validates one agent file. Errors are
// one of *AgentLoadError, *FrontmatterParseError or *schema.ValidationError.
func (l *Loader) LoadAgent(ctx context.Context, path string) (*schema.OpenAgent, error) {
	var agent *schema.OpenAgent
	err := telemetry.WithSpan(ctx, "loader.load_agent", func(ctx context.Context) error {
		log := logger.G(ctx).WithField("path", path)

		content, err := os.ReadFile(path)
		if err != nil {
			return &AgentLoadError{Path: path, Err: err}
		}

		agent, err = Parse(string(content), path)
		if err != nil {
			log.WithError(err).Debug("rejected agent file")
			return err
		}
		log.WithField("agent", agent.Metadata.Name).Debug("loaded agent")
		return nil
	}, attribute.String("oac.path", path))
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// Result is the outcome of loading one file during a batch. Exactly one of
// Agent and Err is set.
type Result struct {
	Path  string
	Agent *schema.OpenAgent
	Err   error
}

// OK reports whether the file loaded successfully
func (r Result) OK() bool { return r.Err == nil }

// Pattern returns the doublestar pattern LoadAgents discovers files with
func (l *Loader) Pattern() string {
	if len(l.extensions) == 1 {
		return "**/*." + l.extensions[0]
	}
	return "**/*.{" + strings.Join(l.extensions, ",") + "}"
}

// Discover lists the candidate agent files under dir in lexical order
func (l *Loader) Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &AgentLoadError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &AgentLoadError{Path: dir, Err: errors.New("not a directory")}
	}

	matches, err := doublestar.Glob(os.DirFS(dir), l.Pattern(), doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, &AgentLoadError{Path: dir, Err: errors.Wrap(err, "failed to discover agent files")}
	}
	sort.Strings(matches)

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return paths, nil
}

// LoadAgents discovers every agent file under dir and loads each one
// independently. One Result is returned per discovered file, in discovery
// order; a failing file never prevents the others from loading. The error
// is non-nil only when dir itself cannot be listed.
//
// Agent names must be unique within a batch: every file after the first
// one claiming a name is reported as a *schema.ValidationError.
func (l *Loader) LoadAgents(ctx context.Context, dir string) ([]Result, error) {
	var results []Result
	err := telemetry.WithSpan(ctx, "loader.load_agents", func(ctx context.Context) error {
		paths, err := l.Discover(dir)
		if err != nil {
			return err
		}
		log := logger.G(ctx).WithFields(logrus.Fields{"dir": dir, "files": len(paths)})
		log.Debug("discovered agent files")

		results = make([]Result, len(paths))
		sem := make(chan struct{}, l.concurrency)
		var wg sync.WaitGroup
		for i, path := range paths {
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				agent, err := l.LoadAgent(ctx, path)
				results[i] = Result{Path: path, Agent: agent, Err: err}
			}(i, path)
		}
		wg.Wait()

		markDuplicates(results)

		failed := len(Failures(results))
		if failed > 0 {
			log.WithField("failed", failed).Warn("some agent files could not be loaded")
		}
		telemetry.SetAttributes(ctx,
			attribute.Int("oac.files", len(paths)),
			attribute.Int("oac.failed", failed),
		)
		return nil
	}, attribute.String("oac.dir", dir))
	if err != nil {
		return nil, err
	}
	return results, nil
}

func markDuplicates(results []Result) {
	first := make(map[string]string)
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		name := r.Agent.Metadata.Name
		if prev, ok := first[name]; ok {
			results[i] = Result{
				Path: r.Path,
				Err: &schema.ValidationError{
					Path: r.Path,
					Violations: []schema.Violation{{
						Field:   "name",
						Message: fmt.Sprintf("duplicate agent name %q (already defined in %s)", name, prev),
					}},
				},
			}
			continue
		}
		first[name] = r.Path
	}
}

// Agents returns the successfully loaded agents in result order
func Agents(results []Result) []*schema.OpenAgent {
	var agents []*schema.OpenAgent
	for _, r := range results {
		if r.Err == nil {
			agents = append(agents, r.Agent)
		}
	}
	return agents
}

// Failures returns the failed results in result order
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Errors combines every failure into one error, or nil if all loaded
func Errors(results []Result) error {
	var merr *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, r.Err)
		}
	}
	return merr.ErrorOrNil()
}

// IsNotExist reports whether err is a load error caused by a missing file
func IsNotExist(err error) bool {
	var le *AgentLoadError
	return errors.As(err, &le) && errors.Is(le.Err, fs.ErrNotExist)
}
