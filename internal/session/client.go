package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn a participant needs.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is the outbound half of one participant's connection. Once joined it
// is owned by the Room; the lifecycle driver keeps the read half.
type Client struct {
	conn         Conn
	writeTimeout time.Duration
	mu           sync.Mutex
	hook         func([]byte) error
}

func NewClient(conn Conn, writeTimeout time.Duration) *Client {
	return &Client{conn: conn, writeTimeout: writeTimeout}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func([]byte) error) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send writes one serialized envelope as a text frame. Failures wrap ErrDelivery.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		if err := c.hook(payload); err != nil {
			return fmt.Errorf("%w: %v", ErrDelivery, err)
		}
		return nil
	}
	if c.conn == nil {
		return fmt.Errorf("%w: connection closed", ErrDelivery)
	}
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (c *Client) read() (int, []byte, error) {
	if c.conn == nil {
		return 0, nil, fmt.Errorf("read: connection closed")
	}
	return c.conn.ReadMessage()
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
