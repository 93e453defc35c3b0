package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/golang-jwt/jwt/v4"
)

const defaultGrantTTL = 10 * time.Minute

// ParticipantChecker answers whether a user belongs to a conversation
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error)
}

// GrantClaims bind one socket to one channel for one user
type GrantClaims struct {
	SocketID string `json:"socket_id"`
	Channel  string `json:"channel"`
	UserID   uint   `json:"user_id"`
	jwt.RegisteredClaims
}

// Authorizer issues and verifies channel grants
type Authorizer struct {
	secret       []byte
	ttl          time.Duration
	participants ParticipantChecker
}

func NewAuthorizer(secret string, participants ParticipantChecker) *Authorizer {
	return &Authorizer{secret: []byte(secret), ttl: defaultGrantTTL, participants: participants}
}

// Authorize signs a grant for socketID on channel when userID may listen to it.
// Conversation channels require participation; user channels require userID
// to be the channel's own user.
func (a *Authorizer) Authorize(ctx context.Context, userID uint, socketID, channel string) (string, error) {
	if socketID == "" || channel == "" {
		return "", fmt.Errorf("%w: socket_id and channel_name are required", services.ErrInvalidInput)
	}
	kind, id, err := ParseChannel(channel)
	if err != nil {
		return "", err
	}

	switch kind {
	case ConversationChannelKind:
		ok, err := a.participants.IsParticipant(ctx, id, userID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: not a participant of %s", services.ErrForbidden, channel)
		}
	case UserChannelKind:
		if id != userID {
			return "", fmt.Errorf("%w: %s belongs to another user", services.ErrForbidden, channel)
		}
	}

	now := time.Now()
	claims := &GrantClaims{
		SocketID: socketID,
		Channel:  channel,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify checks that token grants socketID access to channel
func (a *Authorizer) Verify(token, socketID, channel string) (*GrantClaims, error) {
	claims := &GrantClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid grant: %v", services.ErrForbidden, err)
	}
	if claims.SocketID != socketID || claims.Channel != channel {
		return nil, fmt.Errorf("%w: grant does not match socket and channel", services.ErrForbidden)
	}
	return claims, nil
}
