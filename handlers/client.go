package handlers

import (
	"errors"
	"sync"
	"time"

	"github.com/Arvi89/shared-cart/models"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var (
	errClientClosed      = errors.New("client connection closed")
	errSendBufferFull    = errors.New("client send buffer full")
	errUnknownConnection = errors.New("unknown connection")
)

// client is a single websocket connection.
// Events are queued on send and written by writePump only.
type client struct {
	id        models.ConnectionID
	conn      *websocket.Conn
	send      chan models.Event
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id models.ConnectionID, conn *websocket.Conn, buffer int) *client {
	return &client{
		id:      id,
		conn:    conn,
		send:    make(chan models.Event, buffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// enqueue queues an event without blocking
func (c *client) enqueue(event models.Event) error {
	select {
	case <-c.closing:
		return errClientClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	default:
		// Client might be blocked, but we don't want to block the caller
		return errSendBufferFull
	}
}

// close asks writePump to flush the queue and close the connection
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closing)
	})
}

// writePump writes queued events and keep-alive pings until the connection ends
func (c *client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			if err := c.write(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		case <-c.closing:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-c.done:
			return
		}
	}
}

// flush writes whatever is still queued
func (c *client) flush() {
	for {
		select {
		case event := <-c.send:
			if err := c.write(event); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) write(event models.Event) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(event)
}
