package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_JSON(t *testing.T) {
	event := &Event{
		Type:         EventImageReady,
		UserID:       "user-1",
		InfluencerID: "inf-1",
		URL:          "/media/user-1/1.png",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var raw map[string]interface{}
	err = json.Unmarshal(data, &raw)
	require.NoError(t, err)

	assert.Contains(t, raw, "user_id")
	assert.Contains(t, raw, "influencer_id")

	// chat_id should be omitted when zero
	_, hasChatID := raw["chat_id"]
	assert.False(t, hasChatID)
}

func TestPublisherSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *Event, 1)
	go func() {
		subscriber.Subscribe(ctx, func(event *Event) {
			received <- event
		})
	}()

	// 等订阅建立
	time.Sleep(100 * time.Millisecond)

	err := publisher.Publish(ctx, &Event{
		Type:   EventChatReply,
		UserID: "user-1",
		ChatID: 7,
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, EventChatReply, event.Type)
		assert.Equal(t, "user-1", event.UserID)
		assert.Equal(t, int64(7), event.ChatID)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for event")
	}
}
