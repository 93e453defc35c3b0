package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"postId" gorm:"index;not null"`
	AuthorID  uint      `json:"authorId" gorm:"index;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// CommentWithAuthor is a comment enriched with its author's summary
type CommentWithAuthor struct {
	Comment
	Author UserCompact `json:"author"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// DeleteCommentRequest carries the comment id when it is sent in the body
type DeleteCommentRequest struct {
	CommentID uint `json:"commentId"`
}
