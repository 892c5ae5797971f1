package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Server.DefaultTopK)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "fs", cfg.Storage.Backend)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, 512, cfg.Chunker.WindowSize)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, 2, cfg.Chunker.SegmentLimit)

	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  default_top_k: 5
storage:
  backend: badger
  path: /tmp/echovector-test
embedder:
  provider: hash
  dimension: 128
chunker:
  window_size: 256
  overlap: 32
  tokenizer: rune
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.DefaultTopK)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "hash", cfg.Embedder.Provider)
	assert.Equal(t, 128, cfg.Embedder.Dimension)
	assert.Equal(t, 256, cfg.Chunker.WindowSize)
	assert.Equal(t, "rune", cfg.Chunker.Tokenizer)

	// Unset fields still get defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2, cfg.Chunker.SegmentLimit)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("ECHOVECTOR_TEST_PORT", "7070")
	t.Setenv("ECHOVECTOR_TEST_KEY", "sk-test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: ${ECHOVECTOR_TEST_PORT}
storage:
  path: ${ECHOVECTOR_TEST_UNSET:-./fallback}
embedder:
  provider: openai
  api_key: ${ECHOVECTOR_TEST_KEY}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "./fallback", cfg.Storage.Path)
	assert.Equal(t, "sk-test", cfg.Embedder.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("bad backend", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: s3\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate_Errors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Embedder.Provider = "mystery"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Chunker.Overlap = cfg.Chunker.WindowSize
	assert.Error(t, cfg.Validate())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EV_SET", "value")

	assert.Equal(t, "value", expandEnvVars("${EV_SET}"))
	assert.Equal(t, "value", expandEnvVars("$EV_SET"))
	assert.Equal(t, "fallback", expandEnvVars("${EV_DEFINITELY_UNSET:-fallback}"))
	assert.Equal(t, "value", expandEnvVars("${EV_SET:-fallback}"))
}
