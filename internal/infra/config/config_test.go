package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 3, cfg.LLM.MaxAttempts)
	require.Equal(t, time.Second, cfg.LLM.BackoffUnit)
	require.Equal(t, "anonymous", cfg.LLM.UserID)
	require.Equal(t, "0qg3df", cfg.LLM.SessionID)
	require.True(t, cfg.LLM.WarmUp)
	require.Equal(t, []string{"damn", "hell"}, cfg.Moderation.AllowList)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  address: ":9090"
llm:
  baseUrl: "http://localhost:7000/api/generate"
  maxAttempts: 5
  backoffUnit: 10ms
events:
  redis:
    enabled: true
    addr: "localhost:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LLM_MAX_ATTEMPTS", "4")
	t.Setenv("LLM_WARM_UP", "false")
	t.Setenv("MODERATION_EXTRA", "foo, bar,,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "http://localhost:7000/api/generate", cfg.LLM.BaseURL)
	require.Equal(t, 4, cfg.LLM.MaxAttempts)
	require.Equal(t, 10*time.Millisecond, cfg.LLM.BackoffUnit)
	require.False(t, cfg.LLM.WarmUp)
	require.True(t, cfg.Events.Redis.Enabled)
	require.Equal(t, "echo:events", cfg.Events.Redis.Channel)
	require.Equal(t, []string{"foo", "bar"}, cfg.Moderation.Extra)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "prompt without placeholder",
			mutate:  func(c *Config) { c.LLM.PromptTemplate = "Summarize" },
			wantErr: "llm.promptTemplate must contain exactly one %s placeholder",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.LLM.MaxAttempts = 0 },
			wantErr: "llm.maxAttempts must be positive",
		},
		{
			name: "relay without address",
			mutate: func(c *Config) {
				c.Events.Redis.Enabled = true
				c.Events.Redis.Addr = " "
			},
			wantErr: "events.redis.addr cannot be empty when the relay is enabled",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.HTTP.RateLimit.Burst = 0 },
			wantErr: "http.rateLimit.burst must be positive",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			require.EqualError(t, cfg.Validate(), tt.wantErr)
		})
	}
	require.NoError(t, defaultConfig().Validate())
}
