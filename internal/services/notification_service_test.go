package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyDropsSelfEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")

	assert.Nil(t, e.notifications.Notify(ctx, a.ID, a.ID, models.NotificationPostLiked, nil))
	assert.Zero(t, e.countNotifications(t))

	p, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "mine"})
	require.NoError(t, err)
	_, err = e.content.ToggleLike(ctx, p.ID, a.ID)
	require.NoError(t, err)
	_, err = e.content.AddComment(ctx, p.ID, a.ID, "me again")
	require.NoError(t, err)
	_, err = e.friendships.Request(ctx, a.ID, a.ID)
	require.Error(t, err)

	assert.Zero(t, e.countNotifications(t))
}

func TestListAndMarkAllRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	p, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "news"})
	require.NoError(t, err)
	for i := 0; i < 33; i++ {
		require.NotNil(t, e.notifications.Notify(ctx, a.ID, b.ID, models.NotificationPostLiked, &p.ID))
	}

	list, err := e.notifications.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, list.Items, 30)
	assert.Equal(t, int64(33), list.UnreadCount)
	assert.Equal(t, "Bob", list.Items[0].Actor.FirstName)
	require.NotNil(t, list.Items[0].Post)
	assert.Equal(t, "news", *list.Items[0].Post.Content)

	n, err := e.notifications.MarkAllRead(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(33), n)

	list, err = e.notifications.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, list.UnreadCount)
	for _, item := range list.Items {
		assert.True(t, item.Read)
	}
}

func TestNotifyPushesEnrichedNotification(t *testing.T) {
	e := newEnv(t)
	pusher := &recordingPusher{done: make(chan struct{}, 1)}
	notifier := services.NewNotificationService(repositories.NewStore(e.db), zap.NewNop(), pusher)
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	stored := notifier.Notify(context.Background(), a.ID, b.ID, models.NotificationFriendRequest, nil)
	require.NotNil(t, stored)

	select {
	case <-pusher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not pushed")
	}
	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	require.Len(t, pusher.got, 1)
	assert.Equal(t, stored.ID, pusher.got[0].ID)
	assert.Equal(t, b.ID, pusher.got[0].Actor.ID)
	assert.Nil(t, pusher.got[0].Post)
}
