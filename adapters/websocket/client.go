package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/utils/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// FrameHandler turns one inbound text frame into the response frame to
// send back. It must always return something to write.
type FrameHandler func(ctx context.Context, frame []byte) []byte

type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	handle FrameHandler
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
}

// NewClient wraps an upgraded connection. connID tags every log line
// produced for this connection.
func NewClient(conn *websocket.Conn, connID string, handle FrameHandler) *Client {
	ctx := context.WithValue(context.Background(), log.ConnIDKey, connID)
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 16),
		handle: handle,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) Run() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()
}

// Close gracefully closes the client connection. The send channel is
// never closed: SendMessage may race with Close from another
// goroutine, and writePump exits via ctx cancellation instead.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	// Best effort: tell the peer we are going away before tearing the
	// connection down. WriteControl is safe alongside other writers.
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
	c.conn.Close()
}

// IsClosed returns true if the client connection is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Context returns the client's context
func (c *Client) Context() context.Context {
	return c.ctx
}

// readPump handles inbound frames one at a time, so a connection never
// has more than one relay call in flight.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		if c.IsClosed() {
			return
		}

		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		response := c.handle(c.ctx, frame)
		if err := c.SendMessage(response); err != nil {
			log.WithCtx(c.ctx).Error("Failed to queue response", zap.Error(err))
			return
		}
	}
}

// writePump handles outgoing WebSocket messages and keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// SendMessage queues a message for the client safely.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		// Channel is full, close the connection
		c.Close()
		return websocket.ErrCloseSent
	}
}
