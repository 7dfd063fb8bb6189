package model

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
)

// Client is the ephemeral per-connection record of a room member.
// Identity is an opaque ID decoupled from the transport handle; the
// nick is re-sanitized from every inbound message, not fixed at join.
type Client struct {
	id       string
	Nick     string
	Addr     string
	JoinTime time.Time

	conn net.Conn
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection coming from addr
func NewClient(conn net.Conn, addr string) *Client {
	return &Client{
		id:       uuid.NewString(),
		Nick:     "Guest",
		Addr:     addr,
		JoinTime: time.Now(),
		conn:     conn,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send writes one serialized frame to the peer. Serialized against
// concurrent senders on the same connection.
func (c *Client) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteServerText(c.conn, p)
}

// SendJSON marshals v and sends it as a single text frame
func (c *Client) SendJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(b)
}

// Receive blocks until the peer sends a text frame. Reads and writes
// move in opposite directions, so no lock is shared with Send.
func (c *Client) Receive() ([]byte, error) {
	return wsutil.ReadClientText(c.conn)
}

// Ping sends a websocket ping frame under the same write lock as Send
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteServerMessage(c.conn, ws.OpPing, []byte("ping"))
}

func (c *Client) Close() error {
	return c.conn.Close()
}
