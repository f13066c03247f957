package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 4096

	sendBuffer = 16
)

// Client is one websocket subscription. A client listens to the change
// feed of a single calendar plus its own user-scoped events (invites,
// notification fan-out). Clients never send data; inbound frames are
// drained only to service pings and detect closure.
type Client struct {
	id         string
	userID     uint64
	calendarID uint64

	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// NewClient wraps an upgraded websocket connection.
func NewClient(conn *websocket.Conn, userID, calendarID uint64) *Client {
	return &Client{
		id:         uuid.NewString(),
		userID:     userID,
		calendarID: calendarID,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
	}
}

// ID returns the connection's unique identifier.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump drains inbound frames until the peer goes away, then
// unregisters the client.
func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards queued events to the peer and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
