package models

import "time"

// Conversation is a 1:1 chat. PairKey carries the unique index that keeps one
// conversation per unordered pair of users.
type Conversation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PairKey   string    `json:"-" gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`

	Participants []ConversationParticipant `json:"participants,omitempty"`
}

// ConversationParticipant is the membership row; (conversation, user) is unique.
type ConversationParticipant struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversationId" gorm:"not null;uniqueIndex:idx_conversation_user"`
	UserID         uint      `json:"userId" gorm:"not null;index;uniqueIndex:idx_conversation_user"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Message is immutable after creation except for the read flag.
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversationId" gorm:"not null;index:idx_message_conversation_created"`
	SenderID       uint      `json:"senderId" gorm:"not null;index"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Read           bool      `json:"read" gorm:"column:is_read;default:false"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index:idx_message_conversation_created"`
}

// MessageWithSender is a message enriched with its sender's summary
type MessageWithSender struct {
	Message
	Sender UserCompact `json:"sender"`
}

// ConversationSummary is one row of the caller's conversation list
type ConversationSummary struct {
	ID          uint               `json:"id"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	OtherUser   *UserCompact       `json:"otherUser"`
	LastMessage *MessageWithSender `json:"lastMessage"`
	UnreadCount int64              `json:"unreadCount"`
}

// StartConversationRequest defines the request body for opening a chat with a friend
type StartConversationRequest struct {
	FriendID uint `json:"friendId" validate:"required"`
}

// SendMessageRequest defines the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}
