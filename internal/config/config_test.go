package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/ikitsuke/internal/kv"
)

// isolate points HOME at a temp dir and clears provider keys so the
// developer's own environment does not leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"OPENAI_API_KEY", "GOOGLE_MAPS_API_KEY", "IKITSUKE_OPENAI_API_KEY", "IKITSUKE_MAPS_API_KEY"} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, DirName), cfg.DataDir)
	assert.Equal(t, kv.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, cfg.DataDir, cfg.Storage.DataDir)
	assert.Equal(t, 10.0, cfg.NearbyRadiusKm)
	assert.Equal(t, 10.0, cfg.GateRadiusKm)
	assert.True(t, cfg.AllowRecommended)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-6)
	assert.Equal(t, "gpt-4-turbo", cfg.OpenAI.Model)
	assert.Equal(t, "ja", cfg.Maps.Language)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, DirName, "ikitsuke.yaml"), `
data_dir: /srv/ikitsuke
gate_radius_km: 5
storage:
  backend: file
openai:
  temperature: 0.2
http:
  addr: ":9000"
`)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ikitsuke", cfg.DataDir)
	assert.Equal(t, 5.0, cfg.GateRadiusKm)
	assert.Equal(t, kv.BackendFile, cfg.Storage.Backend)
	assert.InDelta(t, 0.2, cfg.OpenAI.Temperature, 1e-6)

	t.Setenv("IKITSUKE_STORAGE_BACKEND", "memory")
	t.Setenv("IKITSUKE_GATE_RADIUS_KM", "7.5")
	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, kv.BackendMemory, cfg.Storage.Backend, "env beats file")
	assert.Equal(t, 7.5, cfg.GateRadiusKm)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("storage", "sqlite", "")
	fs.String("addr", ":8080", "")
	require.NoError(t, fs.Parse([]string{"--storage", "file"}))
	cfg, err = Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, kv.BackendFile, cfg.Storage.Backend, "flag beats env")
	assert.Equal(t, ":9000", cfg.HTTP.Addr, "unset flag keeps the file value")
}

func TestLoad_ProviderKeysFromConventionalEnv(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-abc")
	t.Setenv("GOOGLE_MAPS_API_KEY", "AIza-xyz")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", cfg.OpenAI.APIKey)
	assert.Equal(t, "AIza-xyz", cfg.Maps.APIKey)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "nearby_radius_km: 3\nrefresh_interval: 10s\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.NearbyRadiusKm)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)

	t.Setenv("IKITSUKE_STORAGE_BACKEND", "cassandra")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "cassandra")

	t.Setenv("IKITSUKE_STORAGE_BACKEND", "")
	t.Setenv("IKITSUKE_GATE_RADIUS_KM", "-1")
	_, err = Load("", nil)
	assert.ErrorContains(t, err, "radii")
}

func TestExpandHome(t *testing.T) {
	home := isolate(t)
	assert.Equal(t, filepath.Join(home, "notes"), expandHome("~/notes"))
	assert.Equal(t, "/abs", expandHome("/abs"))
}
