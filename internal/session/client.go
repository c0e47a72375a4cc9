package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 256 * 1024
	sendBuffer = 256
)

// Client is one websocket connection bound to its own editor session.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	session  *Session
	ClientID string
	seq      int64
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID, clientID string) *Client {
	c := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		ClientID: clientID,
	}
	c.session = New(sessionID, c.Send, hub.opts, hub.logger.With("client", clientID))
	return c
}

// SessionID is the id of the session this client drives.
func (c *Client) SessionID() string {
	return c.session.ID
}

// ReadPump feeds incoming messages to the session until the connection
// closes. It is the only goroutine touching the session.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "session", c.session.ID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "session", c.session.ID)
			continue
		}
		msg.ClientID = c.ClientID
		msg.SessionID = c.session.ID

		c.session.Handle(&msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "session", c.session.ID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues a message for the write pump. Messages are numbered in send
// order so the host can discard stale frames.
func (c *Client) Send(msg *Message) {
	c.seq++
	msg.Seq = c.seq
	msg.ClientID = c.ClientID
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "session", c.session.ID, "type", msg.Type)
	}
}
