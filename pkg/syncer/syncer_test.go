package syncer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagents-control/oac/pkg/adapters"
)

const plannerAgent = `---
name: planner
description: Breaks work into steps
tools:
  read: true
  write: false
---

You plan work before anyone writes code.
`

func writeAgent(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newSyncer(t *testing.T, targets []string, opts ...Option) (*Syncer, string, string) {
	t.Helper()
	agents := t.TempDir()
	out := t.TempDir()
	s, err := New(adapters.NewBuiltinRegistry(), targets, append([]Option{WithOutputDir(out)}, opts...)...)
	require.NoError(t, err)
	return s, agents, out
}

func TestNew_Errors(t *testing.T) {
	_, err := New(adapters.NewBuiltinRegistry(), nil)
	assert.Error(t, err)

	_, err = New(adapters.NewBuiltinRegistry(), []string{"claude", "zed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target "zed"`)

	_, err = New(adapters.NewBuiltinRegistry(), []string{"claude"}, WithLoader(nil))
	assert.Error(t, err)
}

func TestRun_WritesEveryTarget(t *testing.T) {
	s, agents, out := newSyncer(t, []string{"claude", "cursor"})
	writeAgent(t, agents, "planner.md", plannerAgent)

	report, err := s.Run(context.Background(), agents)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	require.Len(t, report.Outputs, 2)
	assert.Equal(t, 2, report.Written())

	claude, err := os.ReadFile(filepath.Join(out, ".claude", "agents", "planner.md"))
	require.NoError(t, err)
	assert.Contains(t, string(claude), "name: planner")
	assert.Contains(t, string(claude), "tools: Read")

	_, err = os.Stat(filepath.Join(out, ".cursor", "rules", "planner.mdc"))
	require.NoError(t, err)

	// a second run has nothing to write
	report, err = s.Run(context.Background(), agents)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Written())
	for _, o := range report.Outputs {
		assert.False(t, o.Changed, o.Path)
		assert.Empty(t, o.Diff)
	}
}

func TestRun_DryRun(t *testing.T) {
	s, agents, out := newSyncer(t, []string{"claude"}, WithDryRun(true))
	writeAgent(t, agents, "planner.md", plannerAgent)

	target := filepath.Join(out, ".claude", "agents", "planner.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("stale\n"), 0o644))

	report, err := s.Run(context.Background(), agents)
	require.NoError(t, err)
	require.Len(t, report.Outputs, 1)

	o := report.Outputs[0]
	assert.True(t, o.Changed)
	assert.False(t, o.Written)
	assert.Contains(t, o.Diff, "-stale")
	assert.Contains(t, o.Diff, "+name: planner")

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "stale\n", string(content))
}

func TestRun_ReportsFailures(t *testing.T) {
	s, agents, out := newSyncer(t, []string{"claude"})
	writeAgent(t, agents, "planner.md", plannerAgent)
	writeAgent(t, agents, "broken.md", "---\nname: [\n---\n")
	writeAgent(t, agents, "nested/silent.md", "---\nname: silent\n---\nNo description.\n")

	report, err := s.Run(context.Background(), agents)
	require.NoError(t, err)
	assert.True(t, report.Failed())
	require.Len(t, report.Results, 3)

	var failed []Output
	for _, o := range report.Outputs {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "silent", failed[0].Agent)
	assert.Empty(t, failed[0].Path)

	_, err = os.Stat(filepath.Join(out, ".claude", "agents", "planner.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, ".claude", "agents", "silent.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_AdapterOutputDir(t *testing.T) {
	cursorDir := t.TempDir()
	s, agents, out := newSyncer(t, []string{"claude", "cursor"}, WithAdapterOutputDir("cursor", cursorDir))
	writeAgent(t, agents, "planner.md", plannerAgent)

	_, err := s.Run(context.Background(), agents)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cursorDir, ".cursor", "rules", "planner.mdc"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, ".claude", "agents", "planner.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, ".cursor"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_MissingDir(t *testing.T) {
	s, _, _ := newSyncer(t, []string{"claude"})
	_, err := s.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWatch_ResyncsOnChange(t *testing.T) {
	s, agents, out := newSyncer(t, []string{"claude"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		reports []*Report
	)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, agents, 50*time.Millisecond, func(r *Report, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				reports = append(reports, r)
			}
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	writeAgent(t, agents, "planner.md", plannerAgent)
	writeAgent(t, agents, "notes.txt", "ignored")

	target := filepath.Join(out, ".claude", "agents", "planner.md")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(target)
		return err == nil
	}, 5*time.Second, 25*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, reports)
}
