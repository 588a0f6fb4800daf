package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8769, cfg.Server.Port)
	assert.Equal(t, "", cfg.DefaultEngine)
	assert.Equal(t, "maxima", cfg.Calc.Path)
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := New()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveMaxJobs(t *testing.T) {
	cfg := New()
	cfg.MaxJobs = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("CAS_PORT", "9090")
	t.Setenv("CAS_DEFAULT_ENGINE", "calc")
	t.Setenv("CAS_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "calc", cfg.DefaultEngine)
}

func TestLoadFromFile_OverridesDefaultsThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\ndefault_engine: algebra\n"), 0o644))

	t.Setenv("CAS_CONFIG_FILE", path)
	os.Unsetenv("CAS_PORT")
	os.Unsetenv("CAS_DEFAULT_ENGINE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "algebra", cfg.DefaultEngine)

	t.Setenv("CAS_PORT", "9091")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 9091, cfg.Server.Port)
	assert.Equal(t, "algebra", cfg.DefaultEngine)
}
