package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// panelMessage is what a connected panel may send back over the socket.
type panelMessage struct {
	Command string `json:"command"`
	Text    string `json:"text"`
}

// Events streams render events using Server-Sent Events.
func (h *ChatHandler) Events(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	stream, cancel := h.events.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-stream:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("marshal event failed", "error", err)
				continue
			}
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(payload)
			c.Writer.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// WebSocket streams render events and accepts panel commands on the same connection.
func (h *ChatHandler) WebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	stream, cancel := h.events.Subscribe()
	defer cancel()

	ctx := context.WithoutCancel(c.Request.Context())
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg panelMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			h.handlePanelMessage(ctx, msg)
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event, open := <-stream:
			if !open {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Warn("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (h *ChatHandler) handlePanelMessage(ctx context.Context, msg panelMessage) {
	switch msg.Command {
	case "summarize":
		if msg.Text == "" {
			return
		}
		go h.controller.SubmitUserText(ctx, msg.Text, true)
	case "clear":
		h.controller.ResetConversation()
	default:
		h.logger.Debug("ignoring panel command", "command", msg.Command)
	}
}
