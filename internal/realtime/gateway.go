package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Vovarama1992/homecare-engage/internal/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxFrameBytes  = 64 << 10
	createDeadline = 15 * time.Second
)

// Gateway upgrades /ws requests and bridges socket events to the Session Service.
type Gateway struct {
	hub      *Hub
	svc      MessageCreator
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewGateway builds a gateway. allowedOrigin "" or "*" accepts any origin.
func NewGateway(hub *Hub, svc MessageCreator, allowedOrigin string, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		hub: hub,
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		log: log.With("component", "realtime"),
	}
}

// ServeWS joins the room named by the sessionId query parameter, if any.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := newClient(uuid.NewString(), r.URL.Query().Get("sessionId"))
	g.hub.join(c)
	g.log.Info("client connected", "client_id", c.id, "session_id", c.sessionID)

	go g.writePump(conn, c)
	g.readPump(context.WithoutCancel(r.Context()), conn, c)
}

func (g *Gateway) readPump(ctx context.Context, conn *websocket.Conn, c *client) {
	defer func() {
		g.hub.leave(c)
		conn.Close()
		g.log.Info("client disconnected", "client_id", c.id, "session_id", c.sessionID)
	}()

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warn("websocket read failed", "client_id", c.id, "err", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			g.log.Debug("dropping malformed frame", "client_id", c.id, "err", err)
			continue
		}
		switch env.Event {
		case EventMessage:
			g.handleMessage(ctx, c, env.Data)
		case EventTyping:
			g.handleTyping(c, env.Data)
		default:
			g.log.Debug("dropping unknown event", "client_id", c.id, "event", env.Event)
		}
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-c.quit:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				g.log.Debug("websocket write failed", "client_id", c.id, "err", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage persists the message and broadcasts the stored record to the
// session's room, sender included. Failures go back to the origin only.
func (g *Gateway) handleMessage(ctx context.Context, c *client, data json.RawMessage) {
	var in messagePayload
	if err := json.Unmarshal(data, &in); err != nil || in.SessionID == "" || in.Content == "" || !in.Sender.Valid() {
		g.sendError(c)
		return
	}

	unlock := g.hub.lockSession(in.SessionID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, createDeadline)
	defer cancel()
	msg, err := g.svc.CreateMessage(ctx, in.SessionID, chat.MessageInput{
		Content: in.Content,
		Sender:  in.Sender,
	})
	if err != nil {
		g.log.Warn("socket message rejected", "client_id", c.id, "session_id", in.SessionID, "err", err)
		g.sendError(c)
		return
	}

	frame, err := encode(EventMessage, msg)
	if err != nil {
		g.log.Error("encode message frame", "err", err)
		return
	}
	n := g.hub.broadcast(in.SessionID, frame, "")
	g.log.Debug("message broadcast", "session_id", in.SessionID, "message_id", msg.ID, "recipients", n)
}

// handleTyping relays to the other room members. Nothing is persisted.
func (g *Gateway) handleTyping(c *client, data json.RawMessage) {
	var in typingPayload
	_ = json.Unmarshal(data, &in)
	if in.SessionID == "" {
		in.SessionID = c.sessionID
	}
	if in.SessionID == "" {
		return
	}
	frame, err := encode(EventTyping, in)
	if err != nil {
		return
	}
	g.hub.broadcast(in.SessionID, frame, c.id)
}

func (g *Gateway) sendError(c *client) {
	frame, err := encode(EventError, errorPayload{Message: sendFailed})
	if err != nil {
		return
	}
	if !c.enqueue(frame) {
		g.log.Warn("dropping error frame, buffer full", "client_id", c.id)
	}
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
