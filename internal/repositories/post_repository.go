package repositories

import (
	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/pagination"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(post *models.Post) error
	GetPostByID(id uint) (*models.Post, error)
	GetPostsByIDs(ids []uint) (map[uint]models.Post, error)
	UpdatePostContent(id uint, content *string) error
	DeletePost(id uint) error
	GetPostsByAuthors(authorIDs []uint, cursor *pagination.Cursor, limit int) ([]models.Post, error)
	GetPostsByTimelineOwner(ownerID uint, cursor *pagination.Cursor, limit int) ([]models.Post, error)
}

// GormPostRepository implements PostRepository on gorm
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GormPostRepository
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// CreatePost creates a new post
func (r *GormPostRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

// GetPostByID retrieves a post by ID
func (r *GormPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *GormPostRepository) GetPostsByIDs(ids []uint) (map[uint]models.Post, error) {
	out := make(map[uint]models.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var posts []models.Post
	if err := r.db.Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

// UpdatePostContent replaces the text of a post. Images and owner never change.
func (r *GormPostRepository) UpdatePostContent(id uint, content *string) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).Update("content", content).Error
}

// DeletePost removes a post together with its likes, comments and notifications.
// Call it inside a transaction.
func (r *GormPostRepository) DeletePost(id uint) error {
	if err := r.db.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("post_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Post{}, id).Error
}

// GetPostsByAuthors returns one page of posts written by any of authorIDs
func (r *GormPostRepository) GetPostsByAuthors(authorIDs []uint, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.Model(&models.Post{}).Where("author_id IN ?", authorIDs)
	if err := pagination.Apply(q, cursor, "", limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostsByTimelineOwner returns one page of posts on ownerID's wall
func (r *GormPostRepository) GetPostsByTimelineOwner(ownerID uint, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.Model(&models.Post{}).Where("timeline_owner_id = ?", ownerID)
	if err := pagination.Apply(q, cursor, "", limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
