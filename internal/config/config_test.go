package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "test"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Name)
	assert.Equal(t, 8, cfg.World.LoadRadius)
	assert.Equal(t, 16, cfg.World.BlockEdge)
	assert.Equal(t, 4, cfg.Generator.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotZero(t, cfg.Network.TickRate)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[world]
load_radius = 4
block_edge = 32

[generator]
seed = 1337
workers = 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.World.LoadRadius)
	assert.Equal(t, 32, cfg.World.BlockEdge)
	assert.Equal(t, int64(1337), cfg.Generator.Seed)
	assert.Equal(t, 2, cfg.Generator.Workers)
	// Untouched sections keep their defaults.
	assert.Equal(t, "0.0.0.0:7331", cfg.Network.BindAddress)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero load radius", "[world]\nload_radius = 0\n"},
		{"block edge not power of two", "[world]\nblock_edge = 24\n"},
		{"block edge too small", "[world]\nblock_edge = 1\n"},
		{"block edge exceeds frame capacity", "[world]\nblock_edge = 64\n"},
		{"zero workers", "[generator]\nworkers = 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}
