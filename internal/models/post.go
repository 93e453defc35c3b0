package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post lives on TimelineOwnerID's wall; TimelineOwnerID equals AuthorID for self posts.
type Post struct {
	ID              uint                        `json:"id" gorm:"primaryKey"`
	Content         *string                     `json:"content"`
	Images          datatypes.JSONSlice[string] `json:"images"`
	AuthorID        uint                        `json:"authorId" gorm:"index;not null"`
	TimelineOwnerID uint                        `json:"timelineOwnerId" gorm:"index;not null"`
	CreatedAt       time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// PostWithDetails is the read model returned by the feeds
type PostWithDetails struct {
	Post
	Author        UserCompact `json:"author"`
	TimelineOwner UserCompact `json:"timelineOwner"`
	LikesCount    int64       `json:"likesCount"`
	CommentsCount int64       `json:"commentsCount"`
	Liked         bool        `json:"liked"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content         string   `json:"content" validate:"max=5000"`
	Images          []string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	TimelineOwnerID *uint    `json:"timelineOwnerId,omitempty"`
}

// UpdatePostRequest defines the request body for editing a post's text
type UpdatePostRequest struct {
	Content string `json:"content" validate:"max=5000"`
}

// LikeResult is the outcome of a like toggle
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}
