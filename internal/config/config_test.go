package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "students.db", cfg.Database.Path)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Empty(t, cfg.Redis.Address)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.Equal(t, 100*time.Millisecond, cfg.Observability.Logging.SlowQueryThreshold)
	assert.Equal(t, 5*time.Second, cfg.Observability.HealthChecks.Timeout)
	assert.True(t, cfg.Observability.HasCheck("database"))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STUDENTS_PRIMARY__ENV", "production")
	t.Setenv("STUDENTS_SERVER__PORT", "9090")
	t.Setenv("STUDENTS_SERVER__CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STUDENTS_SERVER__RATE_LIMIT__REQUESTS_PER_SECOND", "20")
	t.Setenv("STUDENTS_DATABASE__PATH", "/tmp/other.db")
	t.Setenv("STUDENTS_OBSERVABILITY__LOGGING__LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Primary.Env)
	assert.True(t, cfg.Observability.IsProduction())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 20, cfg.Server.RateLimit.RequestsPerSecond)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Observability.GetLogLevel())
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "7000"
  cors_allowed_origins: ["*"]
database:
  driver: postgres
  host: db.internal
  user: students
  name: records
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(FileEnvVar, path)

	// env still wins over the file
	t.Setenv("STUDENTS_DATABASE__PORT", "6432")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.False(t, cfg.Database.IsSQLite())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, "records", cfg.Database.Name)
}

func TestLoadConfig_ForcedObservabilityFields(t *testing.T) {
	t.Setenv("STUDENTS_PRIMARY__ENV", "staging")
	t.Setenv("STUDENTS_OBSERVABILITY__SERVICE_NAME", "")
	t.Setenv("STUDENTS_OBSERVABILITY__ENVIRONMENT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "staging", cfg.Observability.Environment)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"STUDENTS_DATABASE__DRIVER": "mysql"},
		},
		{
			name: "postgres without host",
			env: map[string]string{
				"STUDENTS_DATABASE__DRIVER": "postgres",
				"STUDENTS_DATABASE__USER":   "u",
				"STUDENTS_DATABASE__NAME":   "n",
			},
		},
		{
			name: "bad log level",
			env:  map[string]string{"STUDENTS_OBSERVABILITY__LOGGING__LEVEL": "loud"},
		},
		{
			name: "bad log format",
			env:  map[string]string{"STUDENTS_OBSERVABILITY__LOGGING__FORMAT": "xml"},
		},
		{
			name: "missing config file",
			env:  map[string]string{FileEnvVar: "/does/not/exist.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("STUDENTS_SERVER__PORT"))
	assert.Equal(t, "database.ssl_mode", envKey("STUDENTS_DATABASE__SSL_MODE"))
	assert.Equal(t, "server.rate_limit.burst", envKey("STUDENTS_SERVER__RATE_LIMIT__BURST"))
}

func TestObservabilityConfig_HasCheck(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	assert.True(t, cfg.HasCheck("redis"))
	assert.False(t, cfg.HasCheck("kafka"))

	cfg.HealthChecks.Enabled = false
	assert.False(t, cfg.HasCheck("database"))
}
