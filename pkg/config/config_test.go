package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/versionmail/pkg/vclock"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDB, EnvReplica, EnvStrategy, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versionmail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDB, cfg.DB)
	assert.Equal(t, "concat", cfg.Strategy)
	assert.Equal(t, 100, cfg.Limit)
	assert.Nil(t, cfg.Replica)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDB, cfg.DB)
}

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "db: /tmp/x.db\nreplica: 3\nstrategy: prefer-remote\nlog_level: debug\nlimit: 5\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DB)
	require.NotNil(t, cfg.Replica)
	assert.Equal(t, vclock.ReplicaID(3), *cfg.Replica)
	assert.Equal(t, "prefer-remote", cfg.Strategy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Limit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "db: /tmp/file.db\nreplica: 3\n")
	t.Setenv(EnvDB, "/tmp/env.db")
	t.Setenv(EnvReplica, "9")
	t.Setenv(EnvStrategy, "prefer-local")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DB)
	assert.Equal(t, vclock.ReplicaID(9), *cfg.Replica)
	assert.Equal(t, "prefer-local", cfg.Strategy)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"bad yaml", "db: [unclosed\n", nil},
		{"unknown strategy", "strategy: coin-flip\n", nil},
		{"bad log level", "log_level: loud\n", nil},
		{"zero limit", "limit: 0\n", nil},
		{"bad replica env", "", map[string]string{EnvReplica: "abc"}},
		{"replica overflows", "", map[string]string{EnvReplica: "99999999999"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseReplicaID(t *testing.T) {
	id, err := ParseReplicaID("-4")
	require.NoError(t, err)
	assert.Equal(t, vclock.ReplicaID(-4), id)

	_, err = ParseReplicaID("")
	assert.Error(t, err)
}
