package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/anonto42/friendsbook/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	db            *gorm.DB
	store         *repositories.Store
	notifications *services.NotificationService
	friendships   *services.FriendshipService
	content       *services.ContentService
	feed          *services.FeedService
	conversations *services.ConversationService
	users         *services.UserService
	publisher     *recordingPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	store := repositories.NewStore(db)
	logger := zap.NewNop()
	notifier := services.NewNotificationService(store, logger)
	pub := &recordingPublisher{sent: make(chan published, 16)}

	return &env{
		db:            db,
		store:         store,
		notifications: notifier,
		friendships:   services.NewFriendshipService(store, notifier, logger),
		content:       services.NewContentService(store, notifier, logger),
		feed:          services.NewFeedService(store, logger),
		conversations: services.NewConversationService(store, pub, logger),
		users:         services.NewUserService(store, logger),
		publisher:     pub,
	}
}

func (e *env) user(t *testing.T, first, last string) *models.User {
	return testutil.CreateUser(t, e.db, first, last)
}

func (e *env) friends(t *testing.T, a, b *models.User) {
	testutil.MakeFriends(t, e.db, a.ID, b.ID)
}

func (e *env) notificationsFor(t *testing.T, recipientID uint) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, e.db.Where("recipient_id = ?", recipientID).Order("id ASC").Find(&rows).Error)
	return rows
}

func (e *env) countNotifications(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Notification{}).Count(&n).Error)
	return n
}

type published struct {
	msg      models.MessageWithSender
	socketID string
}

type recordingPublisher struct {
	sent chan published
}

func (p *recordingPublisher) PublishMessage(_ context.Context, msg *models.MessageWithSender, excludeSocketID string) error {
	p.sent <- published{msg: *msg, socketID: excludeSocketID}
	return nil
}

type recordingPusher struct {
	mu   sync.Mutex
	got  []models.EnrichedNotification
	done chan struct{}
}

func (p *recordingPusher) Push(_ context.Context, n *models.EnrichedNotification) error {
	p.mu.Lock()
	p.got = append(p.got, *n)
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}
