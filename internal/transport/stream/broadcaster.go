package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/paddle-arena/internal/api/response"
	"github.com/mcoot/paddle-arena/internal/model"
)

// Broadcaster routes events to the hubs of the topics they concern.
// It implements events.Publisher.
type Broadcaster struct {
	hubs   *HubManager
	logger *slog.Logger
}

// NewBroadcaster creates a broadcaster over the given hubs
func NewBroadcaster(hubs *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubs:   hubs,
		logger: logger.With(slog.String("component", "stream_broadcaster")),
	}
}

// Publish encodes an event once and queues it on every interested hub.
// Topics nobody subscribes to are skipped.
func (b *Broadcaster) Publish(ctx context.Context, event model.Event) {
	data, err := json.Marshal(response.EventFromModel(event))
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}
	msg := Message{Event: string(event.Type), Data: data}

	if event.Type == model.EventSessionRemoved {
		// Subscribers see the removal, then their streams end
		b.hubs.RetireHub(GameTopic(event.GameID), msg)
		return
	}

	for _, topic := range topicsFor(event) {
		if hub := b.hubs.GetHub(topic); hub != nil {
			hub.Broadcast(msg)
		}
	}
}

func topicsFor(event model.Event) []string {
	if event.Type == model.EventChatMessage {
		topics := []string{PlayerTopic(event.PlayerID)}
		if msg, ok := event.Payload.(model.ChatMessage); ok && msg.SenderID != event.PlayerID {
			topics = append(topics, PlayerTopic(msg.SenderID))
		}
		return topics
	}
	if event.GameID == "" {
		return nil
	}
	return []string{GameTopic(event.GameID)}
}
