package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigAccessors(t *testing.T) {
	cfg := New(map[string]any{
		"store_id": "render-core",
		"metrics":  true,
		"workers":  4,
	})

	assert.Equal(t, "render-core", cfg.String("store_id", "fallback"))
	assert.Equal(t, "fallback", cfg.String("missing", "fallback"))
	assert.True(t, cfg.Bool("metrics", false))
	assert.False(t, cfg.Bool("missing", false))
	assert.Equal(t, 4, cfg.Int("workers", 0))
	assert.True(t, cfg.Has("metrics"))
	assert.False(t, cfg.Has("missing"))
}

func TestConfigWrongTypeFallsBack(t *testing.T) {
	cfg := New(map[string]any{
		"store_id": 42,
		"metrics":  "yes",
		"workers":  "many",
	})

	assert.Equal(t, "d", cfg.String("store_id", "d"))
	assert.False(t, cfg.Bool("metrics", false))
	assert.Equal(t, 7, cfg.Int("workers", 7))
}

func TestConfigIntConversions(t *testing.T) {
	cfg := New(map[string]any{
		"a": int64(9),
		"b": float64(3),
		"c": float64(3.5),
	})

	assert.Equal(t, 9, cfg.Int("a", 0))
	assert.Equal(t, 3, cfg.Int("b", 0))
	assert.Equal(t, 0, cfg.Int("c", 0), "fractional floats are rejected")
}

func TestConfigNilMap(t *testing.T) {
	cfg := New(nil)
	assert.Equal(t, "d", cfg.String("anything", "d"))
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte("store_id: physics\nmetrics: true\ntracing: false\n"))
	require.NoError(t, err)

	assert.Equal(t, "physics", cfg.String("store_id", ""))
	assert.True(t, cfg.Bool("metrics", false))
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := FromYAML([]byte("store_id: [unclosed"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"store_id": "physics", "tracing": true}`))
	require.NoError(t, err)

	assert.Equal(t, "physics", cfg.String("store_id", ""))
	assert.True(t, cfg.Bool("tracing", false))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "store.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("store_id: from-yaml\n"), 0o644))

	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.String("store_id", ""))

	jsonPath := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"store_id": "from-json"}`), 0o644))

	cfg, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from-json", cfg.String("store_id", ""))
}

func TestFromFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.toml")
	require.NoError(t, os.WriteFile(path, []byte("store_id = \"x\"\n"), 0o644))

	_, err := FromFile(path)
	assert.ErrorContains(t, err, "unsupported config file extension")
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStoreOptions(t *testing.T) {
	cfg := New(map[string]any{
		"store_id": "configured",
		"metrics":  false,
		"tracing":  false,
	})
	assert.Len(t, cfg.StoreOptions(), 3)

	empty := New(nil)
	assert.Empty(t, empty.StoreOptions())
}
