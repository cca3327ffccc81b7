package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: Mealplan\n"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Intake.MaxRetries)
	assert.Equal(t, time.Second, cfg.Intake.BackoffBase)
	assert.Equal(t, 10, cfg.Intake.BatchLimit)
	assert.Equal(t, 3, cfg.Intake.Concurrency)
	assert.Equal(t, 3, cfg.Intake.MaxRestrictions)
	assert.Equal(t, 10*time.Minute, cfg.Cache.RecipeTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: production
database:
  driver: postgres
  host: db.internal
  database: plans
intake:
  max_retries: 4
  backoff_base: 250ms
`)
	t.Setenv("MEALPLAN_SERVER_PORT", "9090")
	t.Setenv("MEALPLAN_INTAKE_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Intake.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Intake.BackoffBase)
	assert.Equal(t, 8, cfg.Intake.Concurrency)
	assert.Equal(t, "host=db.internal port=5432 user= password= dbname=plans sslmode=disable", cfg.GetDSN(cfg.Database.Host))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown driver", "database:\n  driver: oracle\n", "database.driver"},
		{"port out of range", "server:\n  port: 70000\n", "server.port"},
		{"negative retries", "intake:\n  max_retries: -1\n", "intake.max_retries"},
		{"empty batch", "intake:\n  batch_limit: 0\n", "intake.batch_limit"},
		{"unknown provider", "ai:\n  provider: bard\n", "ai.provider"},
		{"openai without key", "ai:\n  provider: openai\n", "ai.openai_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
