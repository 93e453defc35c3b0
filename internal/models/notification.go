package models

import "time"

type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "FRIEND_REQUEST"
	NotificationFriendAccepted NotificationType = "FRIEND_ACCEPTED"
	NotificationPostLiked      NotificationType = "POST_LIKED"
	NotificationPostCommented  NotificationType = "POST_COMMENTED"
	NotificationTimelinePost   NotificationType = "TIMELINE_POST"
)

// Notification represents a user notification
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:30;index"`
	ActorID     uint             `json:"actorId" gorm:"index"`
	RecipientID uint             `json:"recipientId" gorm:"index:idx_notification_recipient_read"`
	PostID      *uint            `json:"postId" gorm:"index"`
	Read        bool             `json:"read" gorm:"column:is_read;default:false;index:idx_notification_recipient_read"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"index"`
}

// NotificationPost is the slice of a post shown next to a notification
type NotificationPost struct {
	ID      uint    `json:"id"`
	Content *string `json:"content"`
}

// EnrichedNotification includes actor and post info
type EnrichedNotification struct {
	Notification
	Actor UserCompact       `json:"actor"`
	Post  *NotificationPost `json:"post"`
}
