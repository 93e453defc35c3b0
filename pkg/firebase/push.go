package firebase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/friendsbook/backend/internal/models"
)

// MessageSender is satisfied by *messaging.Client
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TopicPusher sends every stored notification to the recipient's FCM topic user_{id}
type TopicPusher struct {
	sender MessageSender
}

func NewTopicPusher(sender MessageSender) *TopicPusher {
	return &TopicPusher{sender: sender}
}

func UserTopic(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

func (p *TopicPusher) Push(ctx context.Context, n *models.EnrichedNotification) error {
	data := map[string]string{
		"notificationId": strconv.FormatUint(uint64(n.ID), 10),
		"type":           string(n.Type),
		"actorId":        strconv.FormatUint(uint64(n.ActorID), 10),
	}
	if n.PostID != nil {
		data["postId"] = strconv.FormatUint(uint64(*n.PostID), 10)
	}

	_, err := p.sender.Send(ctx, &messaging.Message{
		Topic: UserTopic(n.RecipientID),
		Notification: &messaging.Notification{
			Title: "Friendsbook",
			Body:  NotificationText(n),
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// NotificationText renders the one-line description shown in the push
func NotificationText(n *models.EnrichedNotification) string {
	name := strings.TrimSpace(n.Actor.FirstName + " " + n.Actor.LastName)
	if name == "" {
		name = "Someone"
	}

	switch n.Type {
	case models.NotificationFriendRequest:
		return name + " sent you a friend request."
	case models.NotificationFriendAccepted:
		return name + " accepted your friend request."
	case models.NotificationPostLiked:
		return name + " liked your post."
	case models.NotificationPostCommented:
		return name + " commented on your post."
	case models.NotificationTimelinePost:
		return name + " posted on your timeline."
	default:
		return name + " interacted with you."
	}
}
