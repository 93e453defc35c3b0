package services

import (
	"context"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"go.uber.org/zap"
)

const (
	recentNotificationsLimit = 30
	pushTimeout              = 5 * time.Second
)

// Pusher delivers a freshly stored notification over a side channel
// (realtime socket, mobile push). Failures are logged, never returned to callers.
type Pusher interface {
	Push(ctx context.Context, n *models.EnrichedNotification) error
}

// NotificationList is the recent notifications plus the unread total
type NotificationList struct {
	Items       []models.EnrichedNotification `json:"items"`
	UnreadCount int64                         `json:"unreadCount"`
}

// NotificationService is the notification fan-out
type NotificationService struct {
	store   *repositories.Store
	pushers []Pusher
	logger  *zap.Logger
}

func NewNotificationService(store *repositories.Store, logger *zap.Logger, pushers ...Pusher) *NotificationService {
	return &NotificationService{store: store, pushers: pushers, logger: logger}
}

// AddPusher registers another side channel. Call before serving requests.
func (s *NotificationService) AddPusher(p Pusher) {
	s.pushers = append(s.pushers, p)
}

// Notify stores one notification for recipient. Self-events are dropped. Errors
// are logged and swallowed so the triggering mutation always succeeds. It
// returns the stored row, or nil when nothing was stored.
func (s *NotificationService) Notify(ctx context.Context, recipientID, actorID uint, typ models.NotificationType, postID *uint) *models.Notification {
	if recipientID == actorID {
		return nil
	}

	n := &models.Notification{
		Type:        typ,
		ActorID:     actorID,
		RecipientID: recipientID,
		PostID:      postID,
	}
	if err := s.store.WithContext(ctx).Notifications.CreateNotification(n); err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("type", string(typ)),
			zap.Uint("recipient_id", recipientID),
			zap.Uint("actor_id", actorID),
			zap.Error(err),
		)
		return nil
	}

	if len(s.pushers) > 0 {
		go s.push(*n)
	}
	return n
}

func (s *NotificationService) push(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	enriched, err := s.enrich(s.store.WithContext(ctx), []models.Notification{n})
	if err != nil || len(enriched) == 0 {
		s.logger.Warn("failed to load notification for push", zap.Uint("notification_id", n.ID), zap.Error(err))
		return
	}
	for _, p := range s.pushers {
		if err := p.Push(ctx, &enriched[0]); err != nil {
			s.logger.Warn("notification push failed", zap.Uint("notification_id", n.ID), zap.Error(err))
		}
	}
}

// List returns the 30 most recent notifications and the unread count together
func (s *NotificationService) List(ctx context.Context, userID uint) (*NotificationList, error) {
	store := s.store.WithContext(ctx)

	rows, err := store.Notifications.GetRecent(userID, recentNotificationsLimit)
	if err != nil {
		return nil, err
	}
	unread, err := store.Notifications.GetUnreadCount(userID)
	if err != nil {
		return nil, err
	}
	items, err := s.enrich(store, rows)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Items: items, UnreadCount: unread}, nil
}

// MarkAllRead flips every unread notification of userID
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.store.WithContext(ctx).Notifications.MarkAllAsRead(userID)
}

func (s *NotificationService) enrich(store *repositories.Store, rows []models.Notification) ([]models.EnrichedNotification, error) {
	actorIDs := make([]uint, 0, len(rows))
	postIDs := make([]uint, 0, len(rows))
	for _, n := range rows {
		actorIDs = append(actorIDs, n.ActorID)
		if n.PostID != nil {
			postIDs = append(postIDs, *n.PostID)
		}
	}

	actors, err := store.Users.GetUsersByIDs(actorIDs)
	if err != nil {
		return nil, err
	}
	posts, err := store.Posts.GetPostsByIDs(postIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.EnrichedNotification, 0, len(rows))
	for _, n := range rows {
		e := models.EnrichedNotification{Notification: n}
		if actor, ok := actors[n.ActorID]; ok {
			e.Actor = actor.ToCompact()
		}
		if n.PostID != nil {
			if p, ok := posts[*n.PostID]; ok {
				e.Post = &models.NotificationPost{ID: p.ID, Content: p.Content}
			}
		}
		out = append(out, e)
	}
	return out, nil
}
