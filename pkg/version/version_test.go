package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "0.1.0", GitCommit: "4f2c9e1", BuildTime: "2026-10-01T12:00:00Z", GoVersion: "go1.25.1"}
	assert.Equal(t, "Version: 0.1.0, GitCommit: 4f2c9e1, BuildTime: 2026-10-01T12:00:00Z, GoVersion: go1.25.1", info.String())
}

func TestInfo_JSON(t *testing.T) {
	info := Info{Version: "0.1.0", GitCommit: "4f2c9e1", BuildTime: "2026-10-01T12:00:00Z", GoVersion: "go1.25.1"}

	out, err := info.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{
  "version": "0.1.0",
  "gitCommit": "4f2c9e1",
  "buildTime": "2026-10-01T12:00:00Z",
  "goVersion": "go1.25.1"
}`, out)

	var parsed Info
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, info, parsed)
}
