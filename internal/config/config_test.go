package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FLOWD_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Web.Addr)
	require.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	require.Equal(t, "OPENAI_API_KEY", cfg.Model.APIKeyEnv)
	require.Zero(t, cfg.Engine.MaxLevels)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  addr: ":9090"
model:
  name: gpt-4o
engine:
  max_levels: 25
`), 0o600))
	t.Setenv("FLOWD_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Web.Addr)
	require.Equal(t, "gpt-4o", cfg.Model.Name)
	// Unset fields keep their defaults.
	require.Equal(t, "OPENAI_API_KEY", cfg.Model.APIKeyEnv)
	require.Equal(t, 25, cfg.Engine.MaxLevels)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  max_levels: -1
`), 0o600))
	t.Setenv("FLOWD_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("FLOWD_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	key, err := cfg.APIKey()
	require.NoError(t, err)
	require.Equal(t, "sk-test", key)

	t.Setenv("OPENAI_API_KEY", "")
	_, err = cfg.APIKey()
	require.Error(t, err)
}
