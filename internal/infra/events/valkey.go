package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/echo-chat/internal/domain/conversation"
)

type envelope struct {
	Origin string             `json:"origin"`
	Event  conversation.Event `json:"event"`
}

// ValkeyRelay publishes render events on a Valkey channel and replays events published by
// other processes into the local hub, so panels attached to any process see the same turns.
type ValkeyRelay struct {
	client  valkey.Client
	channel string
	origin  string
	local   *Hub
	logger  *slog.Logger
}

// NewValkeyRelay constructs a relay. local may be nil for publish-only processes such as the CLI.
func NewValkeyRelay(client valkey.Client, channel string, local *Hub, logger *slog.Logger) *ValkeyRelay {
	if channel == "" {
		channel = "echo:events"
	}
	return &ValkeyRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		logger:  logger.With("component", "events.valkey"),
	}
}

// Emit delivers locally first, then publishes for the other processes.
func (r *ValkeyRelay) Emit(event conversation.Event) {
	if r.local != nil {
		r.local.Emit(event)
	}
	payload, err := json.Marshal(envelope{Origin: r.origin, Event: event})
	if err != nil {
		r.logger.Error("encode event failed", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmd := r.client.B().Publish().Channel(r.channel).Message(string(payload)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		r.logger.Warn("publish event failed", "channel", r.channel, "error", err)
	}
}

// Run subscribes to the channel until ctx is done.
func (r *ValkeyRelay) Run(ctx context.Context) error {
	r.logger.Info("relay subscribed", "channel", r.channel)
	err := r.client.Receive(ctx, r.client.B().Subscribe().Channel(r.channel).Build(), func(msg valkey.PubSubMessage) {
		r.deliver([]byte(msg.Message))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close releases the Valkey client.
func (r *ValkeyRelay) Close() {
	r.client.Close()
}

func (r *ValkeyRelay) deliver(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Warn("decode relayed event failed", "error", err)
		return
	}
	if env.Origin == r.origin || r.local == nil {
		return
	}
	r.local.Emit(env.Event)
}

var _ conversation.Renderer = (*ValkeyRelay)(nil)
