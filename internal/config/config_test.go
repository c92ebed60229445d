package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"database": map[string]any{
			"url":      "",
			"maxConns": 10,
		},
		"log": map[string]any{
			"level": "info",
		},
		"seed": map[string]any{
			"bcryptCost": 10,
		},
	}

	tests := []struct {
		envKey string
		want   string
		wantOK bool
	}{
		{envKey: "DATABASE_URL", want: "database.url", wantOK: true},
		{envKey: "DATABASE_MAXCONNS", want: "database.maxConns", wantOK: true},
		{envKey: "LOG_LEVEL", want: "log.level", wantOK: true},
		{envKey: "SEED_BCRYPTCOST", want: "seed.bcryptCost", wantOK: true},
		{envKey: "PATH", wantOK: false},
		{envKey: "HOME_DIR", wantOK: false},
		{envKey: "LOG", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			got, ok := canonicalizeEnvKey(tt.envKey, existing)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log:
  level: info
database:
  url: postgres://file
  maxConns: 4
  connectTimeout: 3s
seed:
  bcryptCost: 5
`)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Seed.BcryptCost)
	assert.Equal(t, defaultSessionTTL, cfg.Sessions.MaxLifetime)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, defaultBcryptCost, cfg.Seed.BcryptCost)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, defaultBcryptCost, cfg.Seed.BcryptCost)
	assert.Equal(t, defaultSessionTTL, cfg.Sessions.MaxLifetime)
}
