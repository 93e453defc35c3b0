package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
	replayLimit    = 100
)

var (
	errClientClosed = errors.New("client closed")
	errSlowClient   = errors.New("client send buffer full")
)

// Client is one websocket subscriber
type Client struct {
	id     string
	userID uint
	conn   *websocket.Conn
	broker *Broker
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, userID uint, conn *websocket.Conn, broker *Broker) *Client {
	return &Client{
		id:     id,
		userID: userID,
		conn:   conn,
		broker: broker,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// ID is the socket id the client presents when requesting grants
func (c *Client) ID() string {
	return c.id
}

func (c *Client) enqueue(evt *Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return errClientClosed
	default:
		return errSlowClient
	}
}

func (c *Client) reply(name, channel string, data interface{}) {
	evt, err := NewEvent(channel, name, data)
	if err != nil {
		return
	}
	if err := c.enqueue(evt); err != nil {
		c.broker.logger.Debug("failed to reply to client", zap.String("socket_id", c.id), zap.Error(err))
	}
}

func (c *Client) fail(channel, message string) {
	c.reply(EventError, channel, map[string]string{"message": message})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.broker.hub.remove(c)
		_ = c.conn.Close()
	})
}

// readPump handles subscriber frames until the connection drops
func (c *Client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.broker.logger.Debug("websocket read failed", zap.String("socket_id", c.id), zap.Error(err))
			}
			return
		}

		switch frame.Event {
		case EventSubscribe:
			c.handleSubscribe(ctx, frame)
		case EventUnsubscribe:
			c.broker.hub.unsubscribe(c, frame.Channel)
		case EventPing:
			c.reply(EventPong, "", nil)
		default:
			// clients never publish
			c.fail(frame.Channel, "unsupported event "+frame.Event)
		}
	}
}

func (c *Client) handleSubscribe(ctx context.Context, frame clientFrame) {
	claims, err := c.broker.auth.Verify(frame.Auth, c.id, frame.Channel)
	if err != nil || claims.UserID != c.userID {
		c.fail(frame.Channel, "subscription not authorized")
		return
	}

	c.broker.hub.subscribe(c, frame.Channel)
	c.reply(EventSubscriptionSucceeded, frame.Channel, nil)

	if frame.Since == "" || c.broker.archive == nil {
		return
	}
	since, err := time.Parse(time.RFC3339Nano, frame.Since)
	if err != nil {
		c.fail(frame.Channel, "since must be an RFC3339 timestamp")
		return
	}
	missed, err := c.broker.archive.Since(ctx, frame.Channel, since, replayLimit)
	if err != nil {
		c.broker.logger.Warn("failed to replay archived events", zap.String("channel", frame.Channel), zap.Error(err))
		return
	}
	for i := range missed {
		if err := c.enqueue(&missed[i]); err != nil {
			return
		}
	}
}

// writePump drains the send buffer and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
