package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/echo-chat/internal/bootstrap"
	"github.com/yanqian/echo-chat/internal/domain/conversation"
	"github.com/yanqian/echo-chat/internal/domain/summarizer"
	"github.com/yanqian/echo-chat/internal/infra/config"
	"github.com/yanqian/echo-chat/internal/infra/events"
	"github.com/yanqian/echo-chat/internal/infra/llm/echoyz"
	"github.com/yanqian/echo-chat/internal/infra/moderation"
)

func provideSummaryConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		PromptTemplate:     cfg.LLM.PromptTemplate,
		UserID:             cfg.LLM.UserID,
		SessionID:          cfg.LLM.SessionID,
		MaxAttempts:        cfg.LLM.MaxAttempts,
		BackoffUnit:        cfg.LLM.BackoffUnit,
		RetryTransientOnly: cfg.LLM.RetryTransientOnly,
		WarmUp:             cfg.LLM.WarmUp,
		WarmUpTimeout:      cfg.LLM.Timeout,
	}
}

func provideTransport(cfg *config.Config, logger *slog.Logger) (summarizer.Transport, error) {
	client, err := echoyz.NewClient(echoyz.Options{
		BaseURL:   cfg.LLM.BaseURL,
		UserAgent: cfg.LLM.UserAgent,
		Timeout:   cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.LLM.Breaker.Enabled {
		return client, nil
	}
	logger.Info("llm circuit breaker enabled", "threshold", cfg.LLM.Breaker.FailureThreshold)
	return echoyz.NewBreakerTransport(client, echoyz.BreakerOptions{
		FailureThreshold: cfg.LLM.Breaker.FailureThreshold,
		OpenTimeout:      cfg.LLM.Breaker.OpenTimeout,
	}, logger), nil
}

func provideModerationFilter(cfg *config.Config) *moderation.Filter {
	return moderation.NewFilter(moderation.Config{
		AllowList: cfg.Moderation.AllowList,
		Extra:     cfg.Moderation.Extra,
	})
}

func provideHub(cfg *config.Config, logger *slog.Logger) *events.Hub {
	return events.NewHub(cfg.Events.Buffer, logger)
}

// provideEventRelay returns nil when the relay is disabled or Valkey is unreachable; panels
// attached to this process still receive events through the local hub.
func provideEventRelay(cfg *config.Config, hub *events.Hub, logger *slog.Logger) *events.ValkeyRelay {
	if !cfg.Events.Redis.Enabled {
		return nil
	}
	client, ok := connectValkey(cfg, logger)
	if !ok {
		return nil
	}
	logger.Info("valkey event relay enabled", "addr", cfg.Events.Redis.Addr, "channel", cfg.Events.Redis.Channel)
	return events.NewValkeyRelay(client, cfg.Events.Redis.Channel, hub, logger)
}

func provideRenderer(hub *events.Hub, relay *events.ValkeyRelay) conversation.Renderer {
	if relay != nil {
		return relay
	}
	return hub
}

func provideWorkers(relay *events.ValkeyRelay) bootstrap.Workers {
	if relay == nil {
		return nil
	}
	return bootstrap.Workers{relay}
}

func connectValkey(cfg *config.Config, logger *slog.Logger) (valkey.Client, bool) {
	opt, err := buildValkeyOptions(cfg.Events.Redis.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, relay disabled", "error", err)
		return nil, false
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, relay disabled", "error", err)
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, relay disabled", "error", err)
		client.Close()
		return nil, false
	}
	return client, true
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
