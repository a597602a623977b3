package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/testutil"
)

func subscribe(t *testing.T, manager *HubManager, topic string) *Client {
	t.Helper()
	hub := manager.GetOrCreateHub(topic)
	client := NewClient("test")
	require.True(t, hub.Register(client))
	waitForClients(t, hub, 1)
	return client
}

func TestBroadcaster_GameEventReachesGameTopic(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()
	b := NewBroadcaster(manager, testutil.NopLogger())

	game := subscribe(t, manager, GameTopic("g1"))
	other := subscribe(t, manager, GameTopic("g2"))

	b.Publish(context.Background(), model.Event{
		Type:      model.EventPointScored,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		GameID:    "g1",
		Payload: model.PointScoredPayload{
			Scorer: model.SideLeft,
			Score:  map[model.Side]int{model.SideLeft: 1, model.SideRight: 0},
		},
	})

	msg, ok := receive(t, game)
	require.True(t, ok)
	assert.Equal(t, "point_scored", msg.Event)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "point_scored", decoded["type"])
	assert.Equal(t, "g1", decoded["game_id"])
	data := decoded["data"].(map[string]any)
	assert.Equal(t, "left", data["scorer"])

	select {
	case m := <-other.send:
		t.Fatalf("unrelated game received %q", m.Event)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBroadcaster_ChatReachesRecipientAndSender(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()
	b := NewBroadcaster(manager, testutil.NopLogger())

	alice := subscribe(t, manager, PlayerTopic("alice"))
	bob := subscribe(t, manager, PlayerTopic("bob"))

	b.Publish(context.Background(), model.Event{
		Type:     model.EventChatMessage,
		PlayerID: "bob",
		Payload: model.ChatMessage{
			ID:        "m1",
			SenderID:  "alice",
			Recipient: "bob",
			Body:      "gg",
		},
	})

	for _, c := range []*Client{alice, bob} {
		msg, ok := receive(t, c)
		require.True(t, ok)
		assert.Equal(t, "chat_message", msg.Event)
	}
}

func TestBroadcaster_SessionRemovedClosesGameStreams(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	b := NewBroadcaster(manager, testutil.NopLogger())

	game := subscribe(t, manager, GameTopic("g1"))

	b.Publish(context.Background(), model.Event{Type: model.EventSessionRemoved, GameID: "g1"})

	msg, ok := receive(t, game)
	require.True(t, ok)
	assert.Equal(t, "session_removed", msg.Event)

	_, ok = receive(t, game)
	assert.False(t, ok)
	assert.Nil(t, manager.GetHub(GameTopic("g1")))
}

func TestBroadcaster_NoSubscribers(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	b := NewBroadcaster(manager, testutil.NopLogger())

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), model.Event{Type: model.EventStateTick, GameID: "g1"})
		b.Publish(context.Background(), model.Event{Type: model.EventSessionRemoved, GameID: "g1"})
	})
	assert.Zero(t, manager.HubCount())
}
