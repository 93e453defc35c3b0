package models

import "time"

// Like represents a like on a post. One row per (post, user); presence means liked.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"postId" gorm:"not null;uniqueIndex:idx_post_user_like"`
	UserID    uint      `json:"userId" gorm:"not null;index;uniqueIndex:idx_post_user_like"`
	CreatedAt time.Time `json:"createdAt"`
}
