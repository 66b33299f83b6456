package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	LLM        LLMConfig        `yaml:"llm"`
	Moderation ModerationConfig `yaml:"moderation"`
	Events     EventsConfig     `yaml:"events"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig describes the remote generate endpoint and the request loop.
type LLMConfig struct {
	BaseURL            string        `yaml:"baseUrl"`
	UserAgent          string        `yaml:"userAgent"`
	UserID             string        `yaml:"userId"`
	SessionID          string        `yaml:"sessionId"`
	PromptTemplate     string        `yaml:"promptTemplate"`
	Timeout            time.Duration `yaml:"timeout"`
	MaxAttempts        int           `yaml:"maxAttempts"`
	BackoffUnit        time.Duration `yaml:"backoffUnit"`
	RetryTransientOnly bool          `yaml:"retryTransientOnly"`
	WarmUp             bool          `yaml:"warmUp"`
	Breaker            BreakerConfig `yaml:"breaker"`
}

// BreakerConfig controls the optional circuit breaker in front of the endpoint.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	OpenTimeout      time.Duration `yaml:"openTimeout"`
}

// ModerationConfig tweaks the profanity dictionary.
type ModerationConfig struct {
	AllowList []string `yaml:"allowList"`
	Extra     []string `yaml:"extra"`
}

// EventsConfig controls render event delivery.
type EventsConfig struct {
	Buffer int         `yaml:"buffer"`
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig contains connection information for the Valkey relay.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_USER_AGENT"); v != "" {
		cfg.LLM.UserAgent = v
	}
	if v := os.Getenv("LLM_USER_ID"); v != "" {
		cfg.LLM.UserID = v
	}
	if v := os.Getenv("LLM_SESSION_ID"); v != "" {
		cfg.LLM.SessionID = v
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = parsed
		}
	}
	if v := os.Getenv("LLM_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("LLM_BACKOFF_UNIT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.BackoffUnit = parsed
		}
	}
	if v := os.Getenv("LLM_RETRY_TRANSIENT_ONLY"); v != "" {
		cfg.LLM.RetryTransientOnly = parseBool(v)
	}
	if v := os.Getenv("LLM_WARM_UP"); v != "" {
		cfg.LLM.WarmUp = parseBool(v)
	}
	if v := os.Getenv("LLM_BREAKER_ENABLED"); v != "" {
		cfg.LLM.Breaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("MODERATION_ALLOW_LIST"); v != "" {
		cfg.Moderation.AllowList = splitList(v)
	}
	if v := os.Getenv("MODERATION_EXTRA"); v != "" {
		cfg.Moderation.Extra = splitList(v)
	}
	if v := os.Getenv("EVENTS_BUFFER"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Events.Buffer = parsed
		}
	}
	if v := os.Getenv("EVENTS_REDIS_ENABLED"); v != "" {
		cfg.Events.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("EVENTS_REDIS_ADDR"); v != "" {
		cfg.Events.Redis.Addr = v
	}
	if v := os.Getenv("EVENTS_REDIS_CHANNEL"); v != "" {
		cfg.Events.Redis.Channel = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:     ":8080",
			ReadTimeout: 5 * time.Second,
			// Event streams stay open, so writes are not bounded by default.
			WriteTimeout: 0,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		LLM: LLMConfig{
			BaseURL:        "https://www.echoyz.net/api/generate",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			UserID:         "anonymous",
			SessionID:      "0qg3df",
			PromptTemplate: "Please summarize the following text:\n\n%s",
			Timeout:        60 * time.Second,
			MaxAttempts:    3,
			BackoffUnit:    time.Second,
			WarmUp:         true,
			Breaker: BreakerConfig{
				Enabled:          false,
				FailureThreshold: 5,
				OpenTimeout:      30 * time.Second,
			},
		},
		Moderation: ModerationConfig{
			AllowList: []string{"damn", "hell"},
		},
		Events: EventsConfig{
			Buffer: 64,
			Redis: RedisConfig{
				Enabled: false,
				Channel: "echo:events",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.baseUrl cannot be empty")
	}
	if strings.Count(c.LLM.PromptTemplate, "%s") != 1 {
		return errors.New("llm.promptTemplate must contain exactly one %s placeholder")
	}
	if c.LLM.MaxAttempts <= 0 {
		return errors.New("llm.maxAttempts must be positive")
	}
	if c.LLM.BackoffUnit <= 0 {
		return errors.New("llm.backoffUnit must be positive")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout cannot be negative")
	}
	if c.LLM.Breaker.Enabled && c.LLM.Breaker.FailureThreshold == 0 {
		return errors.New("llm.breaker.failureThreshold must be positive when the breaker is enabled")
	}
	if c.Events.Buffer <= 0 {
		return errors.New("events.buffer must be positive")
	}
	if c.Events.Redis.Enabled && strings.TrimSpace(c.Events.Redis.Addr) == "" {
		return errors.New("events.redis.addr cannot be empty when the relay is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
