package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("does-not-exist.toml")
	require.NoError(t, err)
	assert.Equal(t, uint32(1280), cfg.Application.Width)
	assert.Equal(t, uint32(720), cfg.Application.Height)
	assert.Equal(t, "assets", cfg.Assets.Root)
	assert.True(t, cfg.Assets.OnDemand)
	assert.Equal(t, RingPolicyBlock, cfg.Renderer.RingPolicy)
	assert.Equal(t, "colorNoAmbient", cfg.Renderer.CompositeSource)
}

func TestTOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[application]
width = 1920
height = 1080

[assets]
root = "content"
on_demand = false

[renderer]
ring_policy = "reject"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1920), cfg.Application.Width)
	assert.Equal(t, uint32(1080), cfg.Application.Height)
	assert.Equal(t, "content", cfg.Assets.Root)
	assert.False(t, cfg.Assets.OnDemand)
	assert.Equal(t, RingPolicyReject, cfg.Renderer.RingPolicy)
	// untouched keys keep their defaults
	assert.Equal(t, uint32(1000), cfg.Renderer.MaxConstantBuffers)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRISM_ASSET_ROOT", "/srv/assets")
	t.Setenv("PRISM_WIDTH", "800")
	t.Setenv("PRISM_ON_DEMAND", "false")

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "/srv/assets", cfg.Assets.Root)
	assert.Equal(t, uint32(800), cfg.Application.Width)
	assert.False(t, cfg.Assets.OnDemand)
}

func TestDotEnvIsLoaded(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRISM_LOG_LEVEL=warn\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PRISM_LOG_LEVEL") })

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInvalidValuesAreRejected(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("PRISM_RING_POLICY", "drop")
	_, err := Load(DefaultPath)
	assert.Error(t, err)

	t.Setenv("PRISM_RING_POLICY", "block")
	t.Setenv("PRISM_HEIGHT", "tall")
	_, err = Load(DefaultPath)
	assert.Error(t, err)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
