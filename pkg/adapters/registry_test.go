package adapters

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagents-control/oac/pkg/schema"
)

type stubAdapter struct {
	name string
}

func (s stubAdapter) Name() string        { return s.name }
func (s stubAdapter) DisplayName() string { return "Stub " + s.name }

func (stubAdapter) Capabilities() schema.ToolCapabilities {
	return schema.ToolCapabilities{Features: []schema.Feature{schema.FeatureModel}, OutputDir: ".stub"}
}

func (stubAdapter) ToOAC(context.Context, string) schema.ConversionResult[*schema.OpenAgent] {
	var r schema.Report
	return schema.Failure[*schema.OpenAgent](&r)
}

func (stubAdapter) FromOAC(context.Context, *schema.OpenAgent) schema.ConversionResult[Document] {
	var r schema.Report
	return schema.Result(&r, Document{})
}

func TestNewBuiltinRegistry(t *testing.T) {
	r := NewBuiltinRegistry()
	assert.Equal(t, []string{"openagents", "claude", "cursor", "windsurf"}, r.List())
	assert.Equal(t, 4, r.Len())

	a, ok := r.Get("claude")
	require.True(t, ok)
	assert.Equal(t, "Claude Code", a.DisplayName())

	_, ok = r.Get("vim")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	first := stubAdapter{name: "stub"}
	require.NoError(t, r.Register(first))

	err := r.Register(stubAdapter{name: "stub"})
	require.Error(t, err)
	var regErr *AdapterRegistryError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "stub", regErr.Name)
	assert.Contains(t, err.Error(), "already registered")

	got, ok := r.Get("stub")
	require.True(t, ok)
	assert.Equal(t, first, got)
	assert.Equal(t, []string{"stub"}, r.List())
}

func TestRegistry_RejectsInvalidAdapters(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		adapter Adapter
	}{
		{name: "nil adapter", adapter: nil},
		{name: "empty name", adapter: stubAdapter{}},
		{name: "uppercase name", adapter: stubAdapter{name: "Claude"}},
		{name: "spaces", adapter: stubAdapter{name: "my tool"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.adapter)
			var regErr *AdapterRegistryError
			assert.True(t, errors.As(err, &regErr))
		})
	}
	assert.Empty(t, r.List())
}

func TestRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(stubAdapter{name: name}))
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.List())

	list := r.List()
	list[0] = "changed"
	assert.Equal(t, "zeta", r.List()[0])

	infos := r.Infos()
	require.Len(t, infos, 3)
	assert.Equal(t, "Stub alpha", infos[1].DisplayName)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubAdapter{name: "a"}))
	require.NoError(t, r.Register(stubAdapter{name: "b"}))
	require.NoError(t, r.Register(stubAdapter{name: "c"}))

	assert.True(t, r.Unregister("b"))
	assert.False(t, r.Unregister("b"))
	assert.Equal(t, []string{"a", "c"}, r.List())
	_, ok := r.Info("b")
	assert.False(t, ok)

	require.NoError(t, r.Register(stubAdapter{name: "b"}))
	assert.Equal(t, []string{"a", "c", "b"}, r.List())
}

func TestRegistry_GetAllCapabilitiesIsDetached(t *testing.T) {
	r := NewBuiltinRegistry()

	all := r.GetAllCapabilities()
	require.Len(t, all, 4)
	claude := all["claude"]
	assert.Equal(t, "Claude Code", claude.DisplayName)
	assert.True(t, claude.Capabilities.Supports(schema.FeatureHooks))
	assert.False(t, claude.Capabilities.Supports(schema.FeatureTemperature))
	assert.Empty(t, all["cursor"].Capabilities.Features)
	assert.Len(t, all["openagents"].Capabilities.Features, len(schema.AllFeatures()))

	claude.Capabilities.Features[0] = schema.FeatureContext
	all["claude"] = claude
	delete(all, "cursor")

	again := r.GetAllCapabilities()
	assert.Len(t, again, 4)
	assert.Equal(t, schema.FeatureModel, again["claude"].Capabilities.Features[0])
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := NewBuiltinRegistry()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Register(stubAdapter{name: fmt.Sprintf("stub-%d", i%10)})
		}(i)
		go func() {
			defer wg.Done()
			_, ok := r.Get("claude")
			assert.True(t, ok)
			_ = r.GetAllCapabilities()
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	assert.Equal(t, 10, failed, "each name registers exactly once")
	assert.Equal(t, 14, r.Len())
}
