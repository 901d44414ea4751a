package notify

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongTimeout    = 60 * time.Second
	maxMessageSize = 4 * 1024
)

// Client is one connected WebSocket consumer. The stream is one-way;
// reads only service control frames and detect disconnects.
type Client struct {
	id     string
	conn   *websocket.Conn
	hub    *Hub
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(conn *websocket.Conn, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:     uuid.New().String(),
		conn:   conn,
		hub:    hub,
		sendCh: make(chan []byte, hub.cfg.SendBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// run blocks until the connection drops.
func (c *Client) run() {
	go c.writePump()
	go c.pingPump()
	c.readPump()
}

func (c *Client) send(data []byte) {
	select {
	case c.sendCh <- data:
	case <-c.done:
	default:
		// A stalled client drops refreshes; the next broadcast or a poll
		// catches it up.
		log.Warn().Str("client_id", c.id).Msg("Client send buffer full, dropping message")
	}
}

func (c *Client) close(status websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
		_ = c.conn.Close(status, reason)
	})
}

func (c *Client) readPump() {
	defer c.close(websocket.StatusNormalClosure, "closing")

	c.conn.SetReadLimit(maxMessageSize)

	for {
		if _, _, err := c.conn.Read(c.ctx); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	for {
		select {
		case data := <-c.sendCh:
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket write error")
				return
			}
		case <-c.done:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) pingPump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, pongTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("client_id", c.id).Msg("Ping failed")
				c.close(websocket.StatusNormalClosure, "ping timeout")
				return
			}
		case <-c.done:
			return
		case <-c.ctx.Done():
			return
		}
	}
}
