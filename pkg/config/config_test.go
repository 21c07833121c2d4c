package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{
		"--auth.secret", "a-secret-that-is-long-enough-for-hs256",
		"--database.uri", "postgres://localhost/studysync",
		"--ai.api_key", "key",
	})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "/api", cfg.Server.BasePath)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studysync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
server:
  addr: ":8080"
auth:
  secret: from-file
  session_ttl: 24h
database:
  uri: postgres://file/studysync
ai:
  api_key: file-key
log:
  level: warn
`), 0o600))

	t.Setenv("STUDYSYNC_SERVER__ADDR", ":9090")
	t.Setenv("STUDYSYNC_AUTH__SECRET", "from-env")

	cfg, err := Load([]string{"--config", path, "--log.level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env, "file overrides flag default")
	assert.Equal(t, ":9090", cfg.Server.Addr, "env overrides file")
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "debug", cfg.Log.Level, "explicit flag overrides file")
	assert.True(t, cfg.IsProduction())
}

func TestLoad_StartupRules(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "missing secret",
			args:    []string{"--database.uri", "postgres://x", "--ai.api_key", "k"},
			wantErr: ErrSecretRequired,
		},
		{
			name:    "missing database outside test",
			args:    []string{"--auth.secret", "s", "--ai.api_key", "k"},
			wantErr: ErrDatabaseURIRequired,
		},
		{
			name:    "missing ai key outside test",
			args:    []string{"--auth.secret", "s", "--database.uri", "postgres://x"},
			wantErr: ErrAIKeyRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_TestEnvironmentFallsBackToTestDatabase(t *testing.T) {
	cfg, err := Load([]string{"--env", "test", "--auth.secret", "s"})
	require.NoError(t, err)

	assert.Equal(t, testDatabaseURI, cfg.Database.URI)
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	_, err := Load([]string{"--env", "staging", "--auth.secret", "s"})
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "auth.session_ttl", envKey("STUDYSYNC_AUTH__SESSION_TTL"))
	assert.Equal(t, "env", envKey("STUDYSYNC_ENV"))
}
