package conversation

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/yanqian/echo-chat/pkg/util"
)

// Controller serializes chat turns against the summarizer.
type Controller interface {
	// SubmitUserText runs one turn for text typed into the panel. It returns false, and
	// changes nothing, when another turn is in flight.
	SubmitUserText(ctx context.Context, text string, recordInHistory bool) bool
	// AddExternalUserMessage records and renders text that did not come from the panel input,
	// then runs the turn without recording it a second time.
	AddExternalUserMessage(ctx context.Context, text string) bool
	ResetConversation()
	History() []ChatMessage
	Processing() bool
}

type controller struct {
	summarizer Summarizer
	moderator  Moderator
	renderer   Renderer
	logger     *slog.Logger

	processing atomic.Bool

	mu      sync.RWMutex
	history []ChatMessage
}

// NewController is a wire provider for the conversation domain.
func NewController(summarizer Summarizer, moderator Moderator, renderer Renderer, logger *slog.Logger) Controller {
	return &controller{
		summarizer: summarizer,
		moderator:  moderator,
		renderer:   renderer,
		logger:     logger.With("component", "conversation.controller"),
	}
}

func (c *controller) SubmitUserText(ctx context.Context, text string, recordInHistory bool) bool {
	release, ok := c.acquire()
	if !ok {
		return false
	}
	defer release()

	c.process(ctx, text, recordInHistory)
	return true
}

func (c *controller) AddExternalUserMessage(ctx context.Context, text string) bool {
	release, ok := c.acquire()
	if !ok {
		return false
	}
	defer release()

	msg := c.appendMessage(RoleUser, c.moderate(RoleUser, text))
	c.emitMessage(msg)

	c.process(ctx, msg.Content, false)
	return true
}

func (c *controller) ResetConversation() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()

	c.logger.Info("conversation reset", "processing", c.processing.Load())
	c.renderer.Emit(Event{Type: EventReset, Timestamp: util.NowUTC()})
}

func (c *controller) History() []ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ChatMessage, len(c.history))
	copy(out, c.history)
	return out
}

func (c *controller) Processing() bool {
	return c.processing.Load()
}

// acquire takes the single-flight guard. The returned func must be deferred.
func (c *controller) acquire() (func(), bool) {
	if !c.processing.CompareAndSwap(false, true) {
		c.logger.Debug("turn already in flight, dropping submission")
		return nil, false
	}
	return func() { c.processing.Store(false) }, true
}

func (c *controller) process(ctx context.Context, text string, recordInHistory bool) {
	if recordInHistory {
		c.appendMessage(RoleUser, c.moderate(RoleUser, text))
	}

	c.renderer.Emit(Event{Type: EventThinking, Timestamp: util.NowUTC()})

	summary, err := c.summarizer.Summarize(ctx, text)
	if err != nil {
		c.logger.Error("summarize failed", "error", err)
		msg := c.appendMessage(RoleError, ErrorMessagePrefix+err.Error())
		c.emitMessage(msg)
		return
	}

	msg := c.appendMessage(RoleAssistant, c.moderate(RoleAssistant, summary))
	c.emitMessage(msg)
}

func (c *controller) moderate(role Role, text string) string {
	if c.moderator.IsProfane(text) {
		c.logger.Info("filtered disallowed words", "role", role)
	}
	return c.moderator.Clean(text)
}

func (c *controller) appendMessage(role Role, content string) ChatMessage {
	msg := ChatMessage{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: util.NowUTC(),
	}
	c.mu.Lock()
	c.history = append(c.history, msg)
	c.mu.Unlock()
	return msg
}

func (c *controller) emitMessage(msg ChatMessage) {
	c.renderer.Emit(Event{
		Type:      EventAppendMessage,
		Role:      msg.Role,
		Content:   msg.Content,
		MessageID: msg.ID.String(),
		Timestamp: msg.Timestamp,
	})
}
