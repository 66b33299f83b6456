package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/echo-chat/internal/domain/conversation"
	apperrors "github.com/yanqian/echo-chat/pkg/errors"
)

// EventSource hands out render event subscriptions.
type EventSource interface {
	Subscribe() (<-chan conversation.Event, func())
}

// ChatHandler exposes the panel's command surface over HTTP.
type ChatHandler struct {
	controller conversation.Controller
	events     EventSource
	logger     *slog.Logger
}

type submitRequest struct {
	Text string `json:"text" binding:"required"`
}

type codeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type historyResponse struct {
	Messages   []conversation.ChatMessage `json:"messages"`
	Processing bool                       `json:"processing"`
}

// NewChatHandler constructs the chat HTTP handler.
func NewChatHandler(controller conversation.Controller, events EventSource, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		controller: controller,
		events:     events,
		logger:     logger.With("component", "http.chat"),
	}
}

// SubmitMessage handles text typed into the panel input.
func (h *ChatHandler) SubmitMessage(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.dispatch(c, func(ctx context.Context) bool {
		return h.controller.SubmitUserText(ctx, req.Text, true)
	})
}

// SummarizeSelection sends editor-selected text to the chat.
func (h *ChatHandler) SummarizeSelection(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.dispatchExternal(c, func() (string, error) { return conversation.SelectionPrompt(req.Text) })
}

// SummarizeInput sends pasted text to the chat.
func (h *ChatHandler) SummarizeInput(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.dispatchExternal(c, func() (string, error) { return conversation.InputPrompt(req.Text) })
}

// SendCode asks the assistant to explain a code snippet.
func (h *ChatHandler) SendCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.dispatchExternal(c, func() (string, error) { return conversation.CodePrompt(req.Language, req.Code) })
}

// Clear resets the transcript.
func (h *ChatHandler) Clear(c *gin.Context) {
	h.controller.ResetConversation()
	c.Status(http.StatusNoContent)
}

// History returns the current transcript.
func (h *ChatHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, historyResponse{
		Messages:   h.controller.History(),
		Processing: h.controller.Processing(),
	})
}

func (h *ChatHandler) dispatchExternal(c *gin.Context, build func() (string, error)) {
	text, err := build()
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsCode(err, conversation.CodeInvalidInput) {
			status = http.StatusBadRequest
		}
		abortWithError(c, NewHTTPError(status, "invalid_request", errMessage(err), err))
		return
	}
	h.dispatch(c, func(ctx context.Context) bool {
		return h.controller.AddExternalUserMessage(ctx, text)
	})
}

// dispatch runs a turn in the background and answers immediately; results reach the panel as
// render events. The controller still drops the turn if another one wins the guard first.
func (h *ChatHandler) dispatch(c *gin.Context, run func(ctx context.Context) bool) {
	if h.controller.Processing() {
		abortWithError(c, NewHTTPError(http.StatusConflict, "busy", "a request is already being processed", nil))
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if !run(ctx) {
			h.logger.Info("submission dropped, turn already in flight")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
