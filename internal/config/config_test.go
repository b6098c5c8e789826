package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  host: 0.0.0.0
  port: 8080
database:
  host: localhost
  user: equiprent
  database: equiprent
jwt:
  secret: 0123456789abcdef0123456789abcdef
storage:
  upload_dir: ./uploads
  base_url: http://localhost:8080
rental:
  max_days: 90
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, "mock", cfg.Storage.Type)
	assert.Equal(t, int64(10), cfg.Storage.MaxFileSize)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, 60, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 90, cfg.Rental.MaxDays)
	assert.Equal(t, "0 0 3 * * *", cfg.Scheduler.PurgeReadNotifications)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
	assert.Equal(t, "postgres://equiprent:@localhost:5432/equiprent?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Host: "h", User: "u", Database: "d"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Storage:  StorageConfig{UploadDir: "/tmp"},
		}
	}

	cfg := base()
	cfg.JWT.Secret = "short"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Email.Provider = "sendgrid"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Type = "s3"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Email.Provider = "pigeon"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, base().Validate())
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("auth.login"))
	assert.Equal(t, SecurityRefresh, GetSecurityLevel("auth.refresh"))
	assert.Equal(t, SecurityOptional, GetSecurityLevel("equipment.get"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("rentals.create"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("something.unknown"))
}
