package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.Equal(t, 20, cfg.Feed.SearchLimit)
	assert.Equal(t, 24*time.Hour, cfg.Feed.BreakingWindow)
	assert.Equal(t, 7*24*time.Hour, cfg.Feed.TrendingWindow)
	assert.Equal(t, "article_events", cfg.RabbitMQ.QueueName)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("NEWSROOM_DB_PASSWORD", "s3cret")

	cfg, err := Parse([]byte(`
database:
  host: db.internal
  user: newsroom
  password: ${NEWSROOM_DB_PASSWORD}
  dbname: masbate
feed:
  page_size: 12
  breaking_window: 6h
`))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 12, cfg.Feed.PageSize)
	assert.Equal(t, 6*time.Hour, cfg.Feed.BreakingWindow)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
	assert.Contains(t, cfg.Database.DSN(), "dbname=masbate")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("database: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: redis\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestDatabaseConfig_Configured(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want bool
	}{
		{name: "all mandatory values", cfg: DatabaseConfig{Host: "h", User: "u", DBName: "d"}, want: true},
		{name: "missing host", cfg: DatabaseConfig{User: "u", DBName: "d"}, want: false},
		{name: "missing user", cfg: DatabaseConfig{Host: "h", DBName: "d"}, want: false},
		{name: "missing dbname", cfg: DatabaseConfig{Host: "h", User: "u"}, want: false},
		{name: "empty", cfg: DatabaseConfig{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Configured())
		})
	}
}

func TestStorageConfig_Configured(t *testing.T) {
	assert.False(t, StorageConfig{Bucket: "media"}.Configured())
	assert.True(t, StorageConfig{Bucket: "media", PublicBaseURL: "https://cdn.example.com"}.Configured())
}

func TestDefaultFeed(t *testing.T) {
	feed := DefaultFeed()
	assert.Equal(t, 10, feed.PageSize)
	assert.Equal(t, 5*time.Minute, feed.RefreshInterval)
}
