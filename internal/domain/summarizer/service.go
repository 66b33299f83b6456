package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/yanqian/echo-chat/pkg/errors"
)

// Service exposes the summarize operation against the remote endpoint.
type Service interface {
	Summarize(ctx context.Context, text string) (string, error)
	SummarizeWithAttempts(ctx context.Context, text string, maxAttempts int) (string, error)
}

// Transport posts a payload and returns the raw reply. Errors are reserved for transport failures;
// any HTTP status, including 5xx, comes back as a Reply.
type Transport interface {
	Post(ctx context.Context, payload Payload) (Reply, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type service struct {
	cfg       Config
	transport Transport
	sleep     Sleeper
	logger    *slog.Logger
}

// NewService is a wire provider for the summarizer domain. When cfg.WarmUp is set a
// background "hi" request is fired once; its failure is only logged.
func NewService(cfg Config, transport Transport, logger *slog.Logger) Service {
	svc := newService(cfg, transport, logger, sleepContext)
	if cfg.WarmUp {
		go svc.warmUp()
	}
	return svc
}

func newService(cfg Config, transport Transport, logger *slog.Logger, sleep Sleeper) *service {
	if cfg.PromptTemplate == "" {
		cfg.PromptTemplate = DefaultPromptTemplate
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	return &service{
		cfg:       cfg,
		transport: transport,
		sleep:     sleep,
		logger:    logger.With("component", "summarizer.service"),
	}
}

func (s *service) Summarize(ctx context.Context, text string) (string, error) {
	return s.SummarizeWithAttempts(ctx, text, s.cfg.MaxAttempts)
}

func (s *service) SummarizeWithAttempts(ctx context.Context, text string, maxAttempts int) (string, error) {
	payload := s.buildPayload(text)
	started := time.Now()

	for i := 0; i < maxAttempts; i++ {
		attempt := Attempt{Number: i + 1, MaxAttempts: maxAttempts, Payload: payload}
		s.logger.Info("sending summarize request", "attempt", attempt.Number, "max_attempts", maxAttempts)

		reply, err := s.transport.Post(ctx, payload)
		if err == nil {
			s.logger.Debug("summarize response received", "status", reply.StatusCode, "attempt", attempt.Number)
			// 504 is retried without counting as a failure, except on the final attempt.
			if reply.StatusCode == http.StatusGatewayTimeout && !attempt.Last() {
				wait := s.backoff(i)
				s.logger.Warn("gateway timeout, retrying", "attempt", attempt.Number, "wait", wait)
				if err := s.sleep(ctx, wait); err != nil {
					return "", apperrors.Wrap(CodeTransport, "summarize wait interrupted", err)
				}
				continue
			}
			var content string
			content, err = decodeReply(reply)
			if err == nil {
				s.logger.Info("summarize completed", "attempts", attempt.Number, "elapsed_ms", time.Since(started).Milliseconds())
				return content, nil
			}
		} else {
			err = apperrors.Wrap(CodeTransport, "summarize request failed", err)
		}

		if attempt.Last() || !s.shouldRetry(err) {
			s.logger.Error("summarize request failed", "attempts", attempt.Number, "error", err)
			return "", err
		}
		wait := s.backoff(i)
		s.logger.Warn("summarize attempt failed, retrying", "attempt", attempt.Number, "wait", wait, "error", err)
		if err := s.sleep(ctx, wait); err != nil {
			return "", apperrors.Wrap(CodeTransport, "summarize wait interrupted", err)
		}
	}

	return "", apperrors.Wrap(CodeRetryExhausted, "exhausted retries", nil)
}

func (s *service) warmUp() {
	ctx := context.Background()
	if s.cfg.WarmUpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.WarmUpTimeout)
		defer cancel()
	}
	if _, err := s.Summarize(ctx, "hi"); err != nil {
		s.logger.Warn("warm-up failed", "error", err)
		return
	}
	s.logger.Info("summarizer warmed up")
}

func (s *service) buildPayload(text string) Payload {
	return Payload{
		Prompt:    fmt.Sprintf(s.cfg.PromptTemplate, text),
		UserID:    s.cfg.UserID,
		SessionID: s.cfg.SessionID,
		UseSearch: false,
	}
}

// backoff is linear: 2, 4, 6 ... units for attempt indexes 0, 1, 2 ...
func (s *service) backoff(index int) time.Duration {
	return time.Duration(2*(index+1)) * s.cfg.BackoffUnit
}

func (s *service) shouldRetry(err error) bool {
	if !s.cfg.RetryTransientOnly {
		return true
	}
	return transient(err)
}

func decodeReply(reply Reply) (string, error) {
	if reply.StatusCode < 200 || reply.StatusCode >= 300 {
		return "", newStatusError(reply.StatusCode)
	}
	var out generateResponse
	if err := json.Unmarshal(reply.Body, &out); err != nil {
		return "", apperrors.Wrap(CodeMalformed, "decode summarize response", err)
	}
	if out.Content == "" {
		return NoContent, nil
	}
	return out.Content, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
