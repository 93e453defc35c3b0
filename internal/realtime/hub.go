package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Hub tracks which local clients listen to which channels
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	clients  map[*Client]map[string]struct{}
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*Client]struct{}),
		clients:  make(map[*Client]map[string]struct{}),
		logger:   logger,
	}
}

func (h *Hub) subscribe(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	if h.clients[c] == nil {
		h.clients[c] = make(map[string]struct{})
	}
	h.clients[c][channel] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c, channel)
}

// remove detaches c from every channel
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel := range h.clients[c] {
		h.drop(c, channel)
	}
	delete(h.clients, c)
}

func (h *Hub) drop(c *Client, channel string) {
	if subs, ok := h.channels[channel]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	if chans, ok := h.clients[c]; ok {
		delete(chans, channel)
	}
}

// Deliver sends evt to every local subscriber of its channel except the socket
// named by excludeSocketID. It returns how many clients received it.
func (h *Hub) Deliver(evt *Event, excludeSocketID string) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.channels[evt.Channel]))
	for c := range h.channels[evt.Channel] {
		if c.id != excludeSocketID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.enqueue(evt); err != nil {
			h.logger.Warn("dropping realtime event",
				zap.String("socket_id", c.id),
				zap.String("channel", evt.Channel),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

// Subscribers counts local clients on channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
