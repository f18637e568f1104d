package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("AI_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 1, cfg.AI.MaxRetries)
	assert.Equal(t, 1280, cfg.Image.MaxSide)
	assert.Equal(t, 72, cfg.Image.Quality)
	assert.Equal(t, 6, cfg.Image.MaxPosts)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("AI_TIMEOUT", "30s")
	t.Setenv("IMAGE_MAX_POSTS", "3")
	t.Setenv("AI_TEMPERATURE", "0.2")

	cfg := Load()

	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.Image.MaxPosts)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 1e-6)
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"},
		AI: AIConfig{
			Provider:     ProviderGemini,
			GeminiAPIKey: "key",
			Timeout:      time.Second,
		},
		Image:  ImageConfig{Quality: 72},
		Worker: WorkerConfig{Concurrency: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "disabled needs no key", mutate: func(c *Config) { c.AI.Provider = ProviderDisabled; c.AI.GeminiAPIKey = "" }},
		{name: "missing gemini key", mutate: func(c *Config) { c.AI.GeminiAPIKey = "" }, wantErr: "GEMINI_API_KEY"},
		{name: "missing fallback key", mutate: func(c *Config) { c.AI.Fallback = ProviderOpenAI }, wantErr: "OPENAI_API_KEY"},
		{name: "fallback equals primary", mutate: func(c *Config) { c.AI.Fallback = ProviderGemini }, wantErr: "must differ"},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "claude" }, wantErr: "unsupported AI_PROVIDER"},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "bad quality", mutate: func(c *Config) { c.Image.Quality = 0 }, wantErr: "IMAGE_JPEG_QUALITY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSummaryRedactsKeys(t *testing.T) {
	summary := validConfig().Summary()

	assert.Equal(t, true, summary["gemini_key_set"])
	for _, value := range summary {
		assert.NotEqual(t, "key", value)
	}
}

func TestInitDatabaseSQLite(t *testing.T) {
	cfg := validConfig()
	cfg.Database.SQLitePath = t.TempDir() + "/nested/test.sqlite3"

	db, err := InitDatabase(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable("analyses"))
	assert.True(t, db.Migrator().HasTable("uploads"))
}
