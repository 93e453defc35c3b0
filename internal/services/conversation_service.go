package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const publishTimeout = 5 * time.Second

// MessagePublisher fans a stored message out to the conversation's realtime
// subscribers, skipping the sender's own socket.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *models.MessageWithSender, excludeSocketID string) error
}

// ConversationService manages 1:1 conversations between friends
type ConversationService struct {
	store     *repositories.Store
	publisher MessagePublisher
	logger    *zap.Logger
}

func NewConversationService(store *repositories.Store, publisher MessagePublisher, logger *zap.Logger) *ConversationService {
	return &ConversationService{store: store, publisher: publisher, logger: logger}
}

// SetPublisher attaches the realtime publisher. The broker authorizes channels
// through this service, so it is built after it. Call before serving requests.
func (s *ConversationService) SetPublisher(p MessagePublisher) {
	s.publisher = p
}

// GetOrCreate returns the single conversation between userID and friendID,
// creating it on first use. Concurrent calls for the same pair converge.
func (s *ConversationService) GetOrCreate(ctx context.Context, userID, friendID uint) (*models.Conversation, error) {
	if friendID == 0 || friendID == userID {
		return nil, fmt.Errorf("%w: friendId must name another user", ErrInvalidInput)
	}
	store := s.store.WithContext(ctx)

	if _, err := store.Users.GetUserByID(friendID); err != nil {
		return nil, notFound(err, "user")
	}
	ok, err := areFriends(store, userID, friendID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: you can only message friends", ErrForbidden)
	}

	conv, err := store.Conversations.GetConversationBetween(userID, friendID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = store.Transaction(func(tx *repositories.Store) error {
		created, err := tx.Conversations.CreateConversation(userID, friendID)
		if err != nil {
			return err
		}
		conv = created
		return nil
	})
	if isDuplicate(err) {
		// the other participant created it first
		return store.Conversations.GetConversationBetween(userID, friendID)
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns userID's conversations, most recent first, each with the other
// participant, the last message and the unread count.
func (s *ConversationService) List(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	store := s.store.WithContext(ctx)

	convs, err := store.Conversations.GetUserConversations(userID)
	if err != nil {
		return nil, err
	}

	convIDs := make([]uint, 0, len(convs))
	userIDs := []uint{userID}
	for _, c := range convs {
		convIDs = append(convIDs, c.ID)
		for _, p := range c.Participants {
			if p.UserID != userID {
				userIDs = append(userIDs, p.UserID)
			}
		}
	}

	lastByConv, err := store.Messages.GetLastMessages(convIDs)
	if err != nil {
		return nil, err
	}
	unread, err := store.Messages.CountUnread(convIDs, userID)
	if err != nil {
		return nil, err
	}
	users, err := store.Users.GetUsersByIDs(userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		sum := models.ConversationSummary{
			ID:          c.ID,
			UpdatedAt:   c.UpdatedAt,
			UnreadCount: unread[c.ID],
		}
		for _, p := range c.Participants {
			if p.UserID == userID {
				continue
			}
			if u, ok := users[p.UserID]; ok {
				other := u.ToCompact()
				sum.OtherUser = &other
			}
		}
		if m, ok := lastByConv[c.ID]; ok {
			last := models.MessageWithSender{Message: m}
			if u, ok := users[m.SenderID]; ok {
				last.Sender = u.ToCompact()
			}
			sum.LastMessage = &last
		}
		out = append(out, sum)
	}
	return out, nil
}

// Send stores a message, bumps the conversation's recency and publishes the
// message to the other subscribers. Publishing never fails the send.
func (s *ConversationService) Send(ctx context.Context, conversationID, senderID uint, content, socketID string) (*models.MessageWithSender, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", ErrInvalidInput)
	}
	store := s.store.WithContext(ctx)

	if err := requireParticipant(store, conversationID, senderID); err != nil {
		return nil, err
	}
	sender, err := store.Users.GetUserByID(senderID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	msg := &models.Message{ConversationID: conversationID, SenderID: senderID, Content: content}
	err = store.Transaction(func(tx *repositories.Store) error {
		if err := tx.Messages.CreateMessage(msg); err != nil {
			return err
		}
		return tx.Conversations.Touch(conversationID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	out := &models.MessageWithSender{Message: *msg, Sender: sender.ToCompact()}
	if s.publisher != nil {
		go s.publish(*out, socketID)
	}
	return out, nil
}

func (s *ConversationService) publish(msg models.MessageWithSender, socketID string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishMessage(ctx, &msg, socketID); err != nil {
		s.logger.Warn("failed to publish message",
			zap.Uint("conversation_id", msg.ConversationID),
			zap.Uint("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

// IsParticipant reports whether userID belongs to the conversation
func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	return s.store.WithContext(ctx).Conversations.IsParticipant(conversationID, userID)
}
