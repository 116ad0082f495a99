package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnviron_InheritWhenUnset(t *testing.T) {
	cfg := &Config{FileConfig: FileConfig{UseOSEnv: true}}
	env, err := cfg.Environ()
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestEnviron_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# comment\nA=file\nB=file\n\n"), 0o644))

	cfg := &Config{FileConfig: FileConfig{
		EnvFiles: []string{envFile},
		Env:      []string{"B=list", "C=list"},
	}}
	env, err := cfg.Environ()
	require.NoError(t, err)
	assert.Equal(t, []string{"A=file", "B=list", "C=list"}, env)
}

func TestEnviron_OSBase(t *testing.T) {
	t.Setenv("DEVTERM_TEST_BASE", "os")
	cfg := &Config{FileConfig: FileConfig{UseOSEnv: true, Env: []string{"X=1"}}}
	env, err := cfg.Environ()
	require.NoError(t, err)
	assert.Contains(t, env, "DEVTERM_TEST_BASE=os")
	assert.Contains(t, env, "X=1")
}

func TestEnviron_Errors(t *testing.T) {
	cfg := &Config{FileConfig: FileConfig{Env: []string{"=nokey"}}}
	_, err := cfg.Environ()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = &Config{FileConfig: FileConfig{EnvFiles: []string{filepath.Join(t.TempDir(), "missing.env")}}}
	_, err = cfg.Environ()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
