package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/realtime"
)

const userChannelPrefix = "rt:user:"

// EventBridge carries realtime events through Redis Pub/Sub so that an
// event published on any instance reaches the instance holding the target
// user's connection. It implements the coordinator's EventBus; the local
// hub does the final WebSocket write.
type EventBridge struct {
	hub *realtime.Hub
}

func NewEventBridge(hub *realtime.Hub) *EventBridge {
	return &EventBridge{hub: hub}
}

// Publish sends an event to the user's channel. Delivery to a connection
// happens wherever that user is registered; nowhere is a silent drop.
func (b *EventBridge) Publish(ctx context.Context, userID string, evt realtime.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, userChannelPrefix+userID, data).Err()
}

var bridgeStarted sync.Once

// StartEventSubscriber ensures a single shared Redis listener per instance.
func (b *EventBridge) StartEventSubscriber(ctx context.Context) {
	bridgeStarted.Do(func() {
		go b.runSubscriber(ctx)
	})
}

// wireEvent mirrors realtime.Event with the payload kept raw, so the
// subscriber re-emits exactly the bytes that were published.
type wireEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (b *EventBridge) runSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; event bridge not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, userChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Realtime event subscriber started (pattern: rt:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				userID := strings.TrimPrefix(msg.Channel, userChannelPrefix)
				var evt wireEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("failed to unmarshal realtime event: %v", err)
					continue
				}

				// Deliver to the local connection, if this instance has one.
				if err := b.hub.Publish(ctx, userID, realtime.Event{Name: evt.Name, Data: evt.Data}); err != nil {
					log.Printf("error writing event %s to websocket: %v", evt.Name, err)
				}
			}
		}()
	}
}
