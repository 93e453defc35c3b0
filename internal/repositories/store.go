package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle, so a service
// can run several of them inside a single transaction.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Friendships   FriendshipRepository
	Posts         PostRepository
	Comments      CommentRepository
	Likes         LikeRepository
	Notifications NotificationRepository
	Conversations ConversationRepository
	Messages      MessageRepository
}

// NewStore creates a Store whose repositories all use db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewGormUserRepository(db),
		Friendships:   NewGormFriendshipRepository(db),
		Posts:         NewGormPostRepository(db),
		Comments:      NewGormCommentRepository(db),
		Likes:         NewGormLikeRepository(db),
		Notifications: NewGormNotificationRepository(db),
		Conversations: NewGormConversationRepository(db),
		Messages:      NewGormMessageRepository(db),
	}
}

// WithContext returns a Store bound to ctx.
func (s *Store) WithContext(ctx context.Context) *Store {
	return NewStore(s.db.WithContext(ctx))
}

// Transaction runs fn against a Store bound to a single transaction. Inside fn
// only tx may be used.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
