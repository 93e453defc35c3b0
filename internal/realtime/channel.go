// Package realtime is the channel broker: it authorizes channel subscriptions,
// keeps websocket subscribers and fans server-published events out to them,
// across instances through redis when configured.
package realtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anonto42/friendsbook/backend/internal/services"
)

const (
	conversationPrefix = "conversation:"
	userPrefix         = "user:"
)

// Event names
const (
	EventNewMessage            = "new-message"
	EventNewNotification       = "new-notification"
	EventConnectionEstablished = "connection_established"
	EventSubscriptionSucceeded = "subscription_succeeded"
	EventError                 = "error"
	EventSubscribe             = "subscribe"
	EventUnsubscribe           = "unsubscribe"
	EventPing                  = "ping"
	EventPong                  = "pong"
)

type ChannelKind int

const (
	ConversationChannelKind ChannelKind = iota + 1
	UserChannelKind
)

// ConversationChannel names the channel carrying a conversation's messages
func ConversationChannel(conversationID uint) string {
	return conversationPrefix + strconv.FormatUint(uint64(conversationID), 10)
}

// UserChannel names the private channel carrying a user's notifications
func UserChannel(userID uint) string {
	return userPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseChannel splits a channel name into its kind and id
func ParseChannel(name string) (ChannelKind, uint, error) {
	var kind ChannelKind
	var rest string
	switch {
	case strings.HasPrefix(name, conversationPrefix):
		kind, rest = ConversationChannelKind, strings.TrimPrefix(name, conversationPrefix)
	case strings.HasPrefix(name, userPrefix):
		kind, rest = UserChannelKind, strings.TrimPrefix(name, userPrefix)
	default:
		return 0, 0, fmt.Errorf("%w: unknown channel %q", services.ErrInvalidInput, name)
	}

	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, 0, fmt.Errorf("%w: malformed channel %q", services.ErrInvalidInput, name)
	}
	return kind, uint(id), nil
}
