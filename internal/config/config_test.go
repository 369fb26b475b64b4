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
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "compact", cfg.Agent.ContextMode)
	assert.Equal(t, "in_process", cfg.Agent.ToolSource)
	assert.Equal(t, 6, cfg.Agent.LastK)
	assert.Equal(t, 6, cfg.Agent.MaxToolRounds)
	assert.Equal(t, 60*time.Second, cfg.Agent.LLMTimeout)
	assert.Equal(t, "atomic", cfg.Seating.ClaimMode)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Store.Cache.TTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  context_mode: full
  last_k: 10
store:
  backend: sqlite
  sqlite_path: /tmp/sessions.db
seating:
  backend: mysql
  claim_mode: read_only
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MYSQL_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Agent.ContextMode)
	assert.Equal(t, 10, cfg.Agent.LastK)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/tmp/sessions.db", cfg.Store.SQLitePath)
	assert.Equal(t, "read_only", cfg.Seating.ClaimMode)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "secret", cfg.Seating.MySQL.Password)
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  context_mode: verbose\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	assert.ErrorContains(t, err, `invalid agent.context_mode "verbose"`)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Agent:   AgentConfig{ContextMode: "compact", ToolSource: "in_process", LastK: 6, MaxSummaryChars: 100},
			Store:   StoreConfig{Backend: "postgres"},
			Seating: SeatingConfig{Backend: "postgres", ClaimMode: "atomic"},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Store.Backend = "etcd"
	assert.ErrorContains(t, cfg.Validate(), "store.backend")

	cfg = valid()
	cfg.Seating.ClaimMode = "lazy"
	assert.ErrorContains(t, cfg.Validate(), "seating.claim_mode")

	cfg = valid()
	cfg.Agent.LastK = 0
	assert.ErrorContains(t, cfg.Validate(), "agent.last_k")

	cfg = valid()
	cfg.Agent.MaxSummaryChars = -1
	assert.ErrorContains(t, cfg.Validate(), "agent.max_summary_chars")
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, Database: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", db.DSN())

	my := MySQLConfig{User: "u", Password: "p", Host: "h", Port: 3306, Database: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true", my.DSN())
}
