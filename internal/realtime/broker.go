package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const backplanePrefix = "realtime:"

// Broker is the only publisher of realtime events. With redis configured every
// instance publishes to the backplane and delivers what it receives from it;
// without redis it runs in memory-only mode and delivers locally.
type Broker struct {
	hub      *Hub
	auth     *Authorizer
	redis    *redis.Client
	archive  Archive
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewBroker creates a Broker. rdb and archive may be nil.
func NewBroker(auth *Authorizer, rdb *redis.Client, archive Archive, allowedOrigins []string, logger *zap.Logger) *Broker {
	b := &Broker{
		hub:     NewHub(logger),
		auth:    auth,
		redis:   rdb,
		archive: archive,
		logger:  logger,
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	if rdb == nil {
		logger.Info("realtime broker running in memory-only mode")
	}
	return b
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Authorizer returns the grant issuer used for subscriptions
func (b *Broker) Authorizer() *Authorizer {
	return b.auth
}

// Hub returns the local subscriber registry
func (b *Broker) Hub() *Hub {
	return b.hub
}

// Publish sends an event on channel to every subscriber except excludeSocketID
func (b *Broker) Publish(ctx context.Context, channel, name string, data interface{}, excludeSocketID string) error {
	evt, err := NewEvent(channel, name, data)
	if err != nil {
		return err
	}

	if b.archive != nil {
		if err := b.archive.Save(ctx, evt); err != nil {
			b.logger.Warn("failed to archive realtime event", zap.String("channel", channel), zap.Error(err))
		}
	}

	if b.redis == nil {
		b.hub.Deliver(evt, excludeSocketID)
		return nil
	}

	payload, err := json.Marshal(envelope{Event: evt, Exclude: excludeSocketID})
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, backplanePrefix+channel, payload).Err()
}

// PublishMessage announces a new conversation message
func (b *Broker) PublishMessage(ctx context.Context, msg *models.MessageWithSender, excludeSocketID string) error {
	return b.Publish(ctx, ConversationChannel(msg.ConversationID), EventNewMessage, msg, excludeSocketID)
}

// Push delivers a notification on the recipient's private channel
func (b *Broker) Push(ctx context.Context, n *models.EnrichedNotification) error {
	return b.Publish(ctx, UserChannel(n.RecipientID), EventNewNotification, n, "")
}

// Run consumes the redis backplane until ctx is done. In memory-only mode it
// just waits for ctx.
func (b *Broker) Run(ctx context.Context) error {
	if b.redis == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := b.redis.PSubscribe(ctx, backplanePrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("realtime backplane subscribed", zap.String("pattern", backplanePrefix+"*"))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Event == nil {
				b.logger.Warn("discarding malformed backplane message", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			b.hub.Deliver(env.Event, env.Exclude)
		}
	}
}

// ServeWS upgrades the request to a websocket subscriber owned by userID
func (b *Broker) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(uuid.NewString(), userID, conn, b)
	c.reply(EventConnectionEstablished, "", map[string]string{"socket_id": c.id})
	b.logger.Debug("realtime client connected", zap.String("socket_id", c.id), zap.Uint("user_id", userID))

	go c.writePump()
	go c.readPump()
	return nil
}
