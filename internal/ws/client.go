package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gameroom/internal/game"
	"gameroom/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one websocket session. The read pump drives the lobby
// handlers synchronously, so a single connection's commands are naturally
// ordered; the write pump owns the connection's write side.
type Client struct {
	ID string

	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	session Session

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, hub *Hub, session Session) *Client {
	return &Client{
		ID:      id,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		hub:     hub,
		session: session,
		done:    make(chan struct{}),
	}
}

func (c *Client) run() {
	go c.writePump()

	c.session.Connect(c.ID)
	c.hub.register(c)

	// Handshake first, so the client learns its session ID before any
	// game event can arrive.
	if msg, ok := c.hub.encode(MsgReady, ReadyPayload{UserID: c.ID}); ok {
		c.trySend(msg)
	}

	c.readPump()
}

func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("ws read", "user_id", c.ID, "error", err)
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one inbound frame and runs the matching lobby handler.
// Malformed frames are dropped with a log line; a slow handler simply
// backpressures this connection's reads.
func (c *Client) dispatch(raw []byte) {
	var msg inboundMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("ws frame decode", "user_id", c.ID, "error", err)
		return
	}

	switch msg.Type {
	case MsgCreate:
		var p CreatePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			logger.Warn("create payload decode", "user_id", c.ID, "error", err)
			return
		}
		c.session.Create(c.ID, game.Kind(p.GameName), game.Params(p.Params))
	case MsgJoin:
		var p JoinPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			logger.Warn("join payload decode", "user_id", c.ID, "error", err)
			return
		}
		c.session.Join(c.ID, game.Kind(p.GameName), game.Params(p.Params), p.CreateIfNone)
	case MsgLeave:
		c.session.Leave(c.ID)
	case MsgAction:
		var p ActionPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			logger.Warn("action payload decode", "user_id", c.ID, "error", err)
			return
		}
		c.session.Action(c.ID, p.Action)
	default:
		logger.Warn("unknown ws message", "user_id", c.ID, "type", msg.Type)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// trySend queues a frame without blocking. Dropped frames only hurt the
// slow client itself; the next state broadcast supersedes them anyway.
func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
		logger.Warn("ws send buffer full, dropping frame", "user_id", c.ID)
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.hub.unregister(c)
		c.session.Disconnect(c.ID)
		close(c.done)
		_ = c.conn.Close()
	})
}
