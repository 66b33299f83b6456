package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/echo-chat/internal/domain/conversation"
	"github.com/yanqian/echo-chat/internal/domain/summarizer"
	"github.com/yanqian/echo-chat/internal/infra/config"
	"github.com/yanqian/echo-chat/internal/infra/events"
	"github.com/yanqian/echo-chat/internal/infra/llm/echoyz"
	"github.com/yanqian/echo-chat/internal/infra/moderation"
	"github.com/yanqian/echo-chat/pkg/logger"
)

// session is one CLI invocation: a controller that prints its events and, when the relay is
// configured, also publishes them to panels attached to a running server.
type session struct {
	controller conversation.Controller
	relay      *events.ValkeyRelay
}

func newSession(out io.Writer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New()

	client, err := echoyz.NewClient(echoyz.Options{
		BaseURL:   cfg.LLM.BaseURL,
		UserAgent: cfg.LLM.UserAgent,
		Timeout:   cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}
	svc := summarizer.NewService(summarizer.Config{
		PromptTemplate:     cfg.LLM.PromptTemplate,
		UserID:             cfg.LLM.UserID,
		SessionID:          cfg.LLM.SessionID,
		MaxAttempts:        cfg.LLM.MaxAttempts,
		BackoffUnit:        cfg.LLM.BackoffUnit,
		RetryTransientOnly: cfg.LLM.RetryTransientOnly,
	}, client, log)

	renderers := events.Multi{newConsoleRenderer(out)}
	s := &session{}
	if cfg.Events.Redis.Enabled {
		if relay := publishRelay(cfg, log); relay != nil {
			s.relay = relay
			renderers = append(renderers, relay)
		}
	}

	filter := moderation.NewFilter(moderation.Config{AllowList: cfg.Moderation.AllowList, Extra: cfg.Moderation.Extra})
	s.controller = conversation.NewController(svc, filter, renderers, log)
	return s, nil
}

// result reports a failed turn as a command error so the exit status reflects it.
func (s *session) result() error {
	history := s.controller.History()
	if len(history) > 0 && history[len(history)-1].Role == conversation.RoleError {
		return errTurnFailed
	}
	return nil
}

func (s *session) Close() {
	if s.relay != nil {
		s.relay.Close()
	}
}

func publishRelay(cfg *config.Config, log *slog.Logger) *events.ValkeyRelay {
	opt := valkey.ClientOption{InitAddress: []string{cfg.Events.Redis.Addr}}
	if strings.Contains(cfg.Events.Redis.Addr, "://") {
		parsed, err := valkey.ParseURL(cfg.Events.Redis.Addr)
		if err != nil {
			log.Warn("invalid valkey address, not publishing", "error", err)
			return nil
		}
		opt = parsed
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		log.Warn("valkey unavailable, not publishing", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		log.Warn("valkey ping failed, not publishing", "error", err)
		client.Close()
		return nil
	}
	return events.NewValkeyRelay(client, cfg.Events.Redis.Channel, nil, log)
}

type consoleRenderer struct {
	out io.Writer
}

func newConsoleRenderer(out io.Writer) *consoleRenderer {
	return &consoleRenderer{out: out}
}

func (r *consoleRenderer) Emit(event conversation.Event) {
	switch event.Type {
	case conversation.EventThinking:
		fmt.Fprintln(r.out, "... thinking")
	case conversation.EventAppendMessage:
		fmt.Fprintf(r.out, "[%s] %s\n", event.Role, event.Content)
	case conversation.EventReset:
		fmt.Fprintln(r.out, "conversation cleared")
	}
}
