package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parley-chat/parley-backend/internal/realtime"
	"github.com/parley-chat/parley-backend/internal/services"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

const (
	wsReadLimit    = 64 * 1024
	wsReadTimeout  = 90 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// wsConn wraps a gorilla websocket connection with a write mutex so the
// registry, the Redis subscriber and the ping ticker can all write safely.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) writePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// ChatWebSocket is the realtime gateway: one connection per user, carrying
// messaging, presence, indicators and call signaling.
// Authentication uses the session token (Authorization: Bearer <token>,
// with a `token` query parameter fallback for browser WebSocket clients).
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}
	uid := userID.String()
	username, _ := services.GetUsernameByID(uid)

	raw, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := &wsConn{conn: raw}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator.Connect(ctx, uid, conn)
	services.SetUserPresence(ctx, uid)

	// The presence key is shared by every login of this user, so it is
	// cleared only when the hub confirms this connection still owned the
	// registration. A socket replaced by a newer login must not knock the
	// new one offline.
	defer func() {
		if owner, ok := coordinator.Disconnect(context.Background(), conn); ok {
			services.ClearUserPresence(context.Background(), owner)
		}
	}()

	// Server-side keepalive. The pong handler below extends the read
	// deadline, so a dead peer times out within one read window.
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.writePing(); err != nil {
					return
				}
				services.SetUserPresence(ctx, uid)
			}
		}
	}()

	raw.SetReadLimit(wsReadLimit)
	_ = raw.SetReadDeadline(time.Now().Add(wsReadTimeout))
	raw.SetPongHandler(func(string) error {
		_ = raw.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(wsReadTimeout))

		evt, err := realtime.DecodeClientEvent(data)
		if err != nil {
			log.Printf("ws: dropping frame from %s: %v", uid, err)
			continue
		}
		dispatchClientEvent(ctx, uid, username, evt)
	}
}

// dispatchClientEvent routes one validated frame to the coordinator. A
// panic while handling a single event is contained here so it cannot kill
// the connection's read loop.
func dispatchClientEvent(ctx context.Context, userID, username string, evt *realtime.ClientEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("ws: panic handling %s from %s: %v", evt.Name, userID, rec)
		}
	}()

	switch evt.Name {
	case realtime.EventJoinRoom:
		// Registration already happened on connect; treated as a no-op
		// for clients that still send it.

	case realtime.EventSendMessage:
		p := evt.Payload.(*realtime.SendMessagePayload)
		if err := coordinator.SendMessage(ctx, userID, username, p); err != nil {
			log.Printf("ws: send_message from %s: %v", userID, err)
		}

	case realtime.EventMessageDelivered:
		p := evt.Payload.(*realtime.AckPayload)
		if err := coordinator.MarkDelivered(ctx, userID, p.MessageID); err != nil {
			log.Printf("ws: message_delivered from %s: %v", userID, err)
		}

	case realtime.EventMessageRead:
		p := evt.Payload.(*realtime.AckPayload)
		if err := coordinator.MarkRead(ctx, userID, p.MessageID); err != nil {
			log.Printf("ws: message_read from %s: %v", userID, err)
		}

	case realtime.EventMarkAllRead:
		p := evt.Payload.(*realtime.MarkAllReadPayload)
		if err := coordinator.MarkAllRead(ctx, userID, p.SenderID); err != nil {
			log.Printf("ws: mark_all_read from %s: %v", userID, err)
		}

	case realtime.EventEditMessage:
		p := evt.Payload.(*realtime.EditMessagePayload)
		if err := coordinator.EditMessage(ctx, userID, p); err != nil {
			log.Printf("ws: edit_message from %s: %v", userID, err)
		}

	case realtime.EventDeleteMessage:
		p := evt.Payload.(*realtime.DeleteMessagePayload)
		if err := coordinator.DeleteMessage(ctx, userID, p); err != nil {
			log.Printf("ws: delete_message from %s: %v", userID, err)
		}

	case realtime.EventUserTyping, realtime.EventUserStopTyping,
		realtime.EventUserRecording, realtime.EventUserStopRecording:
		p := evt.Payload.(*realtime.IndicatorPayload)
		if err := coordinator.RelayIndicator(ctx, userID, username, evt.Name, p); err != nil {
			log.Printf("ws: %s from %s: %v", evt.Name, userID, err)
		}

	case realtime.EventCallUser:
		p := evt.Payload.(*realtime.CallSignalPayload)
		if err := coordinator.CallUser(ctx, userID, username, p); err != nil {
			log.Printf("ws: call_user from %s: %v", userID, err)
		}

	case realtime.EventAnswerCall:
		p := evt.Payload.(*realtime.CallSignalPayload)
		coordinator.AnswerCall(ctx, userID, p)

	case realtime.EventIceCandidate:
		p := evt.Payload.(*realtime.IceCandidatePayload)
		coordinator.RelayIceCandidate(ctx, userID, p)

	case realtime.EventEndCall:
		p := evt.Payload.(*realtime.EndCallPayload)
		coordinator.EndCall(ctx, userID, p)
	}
}
