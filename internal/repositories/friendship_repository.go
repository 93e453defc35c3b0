package repositories

import (
	"github.com/anonto42/friendsbook/backend/internal/models"
	"gorm.io/gorm"
)

// FriendshipRepository defines the interface for friendship data operations
type FriendshipRepository interface {
	CreateFriendship(f *models.Friendship) error
	GetFriendshipByID(id uint) (*models.Friendship, error)
	GetFriendshipBetween(a, b uint) (*models.Friendship, error)
	AcceptFriendship(id, addresseeID uint) (bool, error)
	RejectFriendship(id, addresseeID uint) (bool, error)
	DeleteFriendship(id uint) (bool, error)
	GetFriendships(userID uint, status models.FriendshipStatus) ([]models.Friendship, error)
	GetIncomingRequests(userID uint) ([]models.Friendship, error)
	GetOutgoingRequests(userID uint) ([]models.Friendship, error)
	GetFriendIDs(userID uint) ([]uint, error)
	GetAcceptedAmong(userIDs []uint) ([]models.Friendship, error)
	GetRelatedUserIDs(userID uint) ([]uint, error)
	CountFriends(userID uint) (int64, error)
}

// GormFriendshipRepository implements FriendshipRepository on gorm
type GormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GormFriendshipRepository
func NewGormFriendshipRepository(db *gorm.DB) *GormFriendshipRepository {
	return &GormFriendshipRepository{db: db}
}

// CreateFriendship inserts a row. A second row for the same pair fails on the pair_key unique index.
func (r *GormFriendshipRepository) CreateFriendship(f *models.Friendship) error {
	f.PairKey = models.PairKey(f.RequesterID, f.AddresseeID)
	return r.db.Create(f).Error
}

// GetFriendshipByID retrieves a friendship by ID
func (r *GormFriendshipRepository) GetFriendshipByID(id uint) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.db.First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFriendshipBetween retrieves the row linking a and b in either direction
func (r *GormFriendshipRepository) GetFriendshipBetween(a, b uint) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.db.Where("pair_key = ?", models.PairKey(a, b)).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// AcceptFriendship flips a pending row addressed to addresseeID to accepted.
// It reports false when no pending row matched, so only one of two racing accepts wins.
func (r *GormFriendshipRepository) AcceptFriendship(id, addresseeID uint) (bool, error) {
	res := r.db.Model(&models.Friendship{}).
		Where("id = ? AND addressee_id = ? AND status = ?", id, addresseeID, models.FriendshipPending).
		Update("status", models.FriendshipAccepted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RejectFriendship deletes a row only while it is still pending and addressed
// to addresseeID. It reports false when an accept or another reject got there first.
func (r *GormFriendshipRepository) RejectFriendship(id, addresseeID uint) (bool, error) {
	res := r.db.
		Where("id = ? AND addressee_id = ? AND status = ?", id, addresseeID, models.FriendshipPending).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteFriendship deletes a friendship and reports whether a row was removed
func (r *GormFriendshipRepository) DeleteFriendship(id uint) (bool, error) {
	res := r.db.Delete(&models.Friendship{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetFriendships retrieves every row with the given status that involves userID
func (r *GormFriendshipRepository) GetFriendships(userID uint, status models.FriendshipStatus) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := r.db.Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, status).
		Order("updated_at DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// GetIncomingRequests retrieves pending requests addressed to userID, newest first
func (r *GormFriendshipRepository) GetIncomingRequests(userID uint) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := r.db.Where("addressee_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// GetOutgoingRequests retrieves pending requests sent by userID, newest first
func (r *GormFriendshipRepository) GetOutgoingRequests(userID uint) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := r.db.Where("requester_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// GetFriendIDs returns the ids of every accepted friend of userID
func (r *GormFriendshipRepository) GetFriendIDs(userID uint) ([]uint, error) {
	rows, err := r.GetFriendships(userID, models.FriendshipAccepted)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].OtherParty(userID))
	}
	return ids, nil
}

// GetAcceptedAmong retrieves accepted rows where either side is in userIDs
func (r *GormFriendshipRepository) GetAcceptedAmong(userIDs []uint) ([]models.Friendship, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []models.Friendship
	err := r.db.Where("(requester_id IN ? OR addressee_id IN ?) AND status = ?", userIDs, userIDs, models.FriendshipAccepted).
		Find(&rows).Error
	return rows, err
}

// GetRelatedUserIDs returns everyone linked to userID by a row of any status
func (r *GormFriendshipRepository) GetRelatedUserIDs(userID uint) ([]uint, error) {
	var rows []models.Friendship
	if err := r.db.Where("requester_id = ? OR addressee_id = ?", userID, userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].OtherParty(userID))
	}
	return ids, nil
}

// CountFriends counts accepted friendships involving userID
func (r *GormFriendshipRepository) CountFriends(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.FriendshipAccepted).
		Count(&count).Error
	return count, err
}
