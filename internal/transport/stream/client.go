package stream

import (
	"time"

	"github.com/google/uuid"
)

// Buffer size for outgoing messages
const sendBufferSize = 256

// Client is one subscriber connection to a hub
type Client struct {
	id          string
	subscriber  string
	send        chan Message
	connectedAt time.Time
}

// NewClient creates a client. Subscriber names who is listening, for logs.
func NewClient(subscriber string) *Client {
	return &Client{
		id:          uuid.NewString(),
		subscriber:  subscriber,
		send:        make(chan Message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// deliver queues a message without blocking. Only the hub loop calls it,
// so it never races with the hub closing the channel.
func (c *Client) deliver(message Message) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}
