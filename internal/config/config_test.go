package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ALLOW_ORIGINS", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("GCS_BUCKET_NAME", "")
	t.Setenv("GOTENBERG_URL", "")
	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("MERGE_ESCAPE_VALUES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.False(t, cfg.Merge.EscapeValues)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.GCS.Enabled())
	assert.False(t, cfg.Gotenberg.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOW_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("SESSION_MAX_AGE", "2h")
	t.Setenv("MERGE_ESCAPE_VALUES", "true")
	t.Setenv("DB_HOST", "/cloudsql/project:region:instance")
	t.Setenv("DB_USER", "cards")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "cards")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Session.MaxAge)
	assert.True(t, cfg.Merge.EscapeValues)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "cards:secret@unix(/cloudsql/project:region:instance)/cards?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_MAX_AGE", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "SESSION_MAX_AGE")

	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("MERGE_ESCAPE_VALUES", "maybe")
	_, err = Load()
	assert.ErrorContains(t, err, "MERGE_ESCAPE_VALUES")
}

func TestTCPDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "3306", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())
}
