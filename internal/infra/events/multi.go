package events

import "github.com/yanqian/echo-chat/internal/domain/conversation"

// Multi forwards every event to each renderer in order.
type Multi []conversation.Renderer

// Emit implements conversation.Renderer.
func (m Multi) Emit(event conversation.Event) {
	for _, r := range m {
		r.Emit(event)
	}
}
