package repositories

import (
	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/pagination"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	CreateMessage(msg *models.Message) error
	GetMessages(conversationID uint, cursor *pagination.Cursor, limit int) ([]models.Message, error)
	MarkReadFor(conversationID, readerID uint) (int64, error)
	GetLastMessages(conversationIDs []uint) (map[uint]models.Message, error)
	CountUnread(conversationIDs []uint, readerID uint) (map[uint]int64, error)
}

// GormMessageRepository implements MessageRepository on gorm
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) CreateMessage(msg *models.Message) error {
	return r.db.Create(msg).Error
}

// GetMessages returns one page of a conversation, newest first
func (r *GormMessageRepository) GetMessages(conversationID uint, cursor *pagination.Cursor, limit int) ([]models.Message, error) {
	var msgs []models.Message
	q := r.db.Model(&models.Message{}).Where("conversation_id = ?", conversationID)
	if err := pagination.Apply(q, cursor, "", limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkReadFor marks as read every message in the conversation that readerID did not send
func (r *GormMessageRepository) MarkReadFor(conversationID, readerID uint) (int64, error) {
	res := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// GetLastMessages returns the newest message of each conversation
func (r *GormMessageRepository) GetLastMessages(conversationIDs []uint) (map[uint]models.Message, error) {
	out := make(map[uint]models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	latest := r.db.Model(&models.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id")

	var msgs []models.Message
	if err := r.db.Where("id IN (?)", latest).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.ConversationID] = m
	}
	return out, nil
}

type conversationCount struct {
	ConversationID uint
	Count          int64
}

// CountUnread counts, per conversation, messages readerID has not read yet
func (r *GormMessageRepository) CountUnread(conversationIDs []uint, readerID uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	var rows []conversationCount
	err := r.db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", conversationIDs, readerID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConversationID] = row.Count
	}
	return out, nil
}
