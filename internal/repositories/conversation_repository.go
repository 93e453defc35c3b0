package repositories

import (
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"gorm.io/gorm"
)

// ConversationRepository defines the interface for conversation data operations
type ConversationRepository interface {
	CreateConversation(a, b uint) (*models.Conversation, error)
	GetConversationByID(id uint) (*models.Conversation, error)
	GetConversationBetween(a, b uint) (*models.Conversation, error)
	GetUserConversations(userID uint) ([]models.Conversation, error)
	GetParticipantIDs(conversationID uint) ([]uint, error)
	IsParticipant(conversationID, userID uint) (bool, error)
	Touch(conversationID uint, at time.Time) error
}

// GormConversationRepository implements ConversationRepository on gorm
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// CreateConversation inserts a conversation for the pair and both participant rows.
// Call it inside a transaction. A concurrent create for the same pair fails on pair_key.
func (r *GormConversationRepository) CreateConversation(a, b uint) (*models.Conversation, error) {
	conv := &models.Conversation{
		PairKey: models.PairKey(a, b),
		Participants: []models.ConversationParticipant{
			{UserID: a},
			{UserID: b},
		},
	}
	if err := r.db.Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

// GetConversationByID retrieves a conversation with its participants
func (r *GormConversationRepository) GetConversationByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.Preload("Participants").First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversationBetween retrieves the 1:1 conversation for the unordered pair
func (r *GormConversationRepository) GetConversationBetween(a, b uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.Preload("Participants").Where("pair_key = ?", models.PairKey(a, b)).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetUserConversations retrieves userID's conversations, most recently active first
func (r *GormConversationRepository) GetUserConversations(userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.Preload("Participants").
		Where("id IN (?)", r.db.Model(&models.ConversationParticipant{}).Select("conversation_id").Where("user_id = ?", userID)).
		Order("updated_at DESC").Order("id DESC").
		Find(&convs).Error
	return convs, err
}

func (r *GormConversationRepository) GetParticipantIDs(conversationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// IsParticipant reports whether userID belongs to the conversation
func (r *GormConversationRepository) IsParticipant(conversationID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// Touch bumps updated_at so the conversation sorts as most recent
func (r *GormConversationRepository) Touch(conversationID uint, at time.Time) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", conversationID).Update("updated_at", at).Error
}
