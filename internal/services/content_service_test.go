package services_test

import (
	"context"
	"testing"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestCreatePost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")
	c := e.user(t, "Cid", "Moe")
	e.friends(t, a, b)

	_, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "   "})
	assert.ErrorIs(t, err, services.ErrEmptyPost)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	p, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Images: []string{"https://cdn.example.com/a.png"}})
	require.NoError(t, err)
	assert.Nil(t, p.Content)
	assert.Equal(t, a.ID, p.TimelineOwnerID)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, []string(p.Images))

	_, err = e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "hi", TimelineOwnerID: uintPtr(c.ID)})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "hi", TimelineOwnerID: uintPtr(999)})
	assert.ErrorIs(t, err, services.ErrNotFound)

	wall, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: " hello ", TimelineOwnerID: uintPtr(b.ID)})
	require.NoError(t, err)
	assert.Equal(t, "hello", *wall.Content)
	assert.Equal(t, b.ID, wall.TimelineOwner.ID)
	assert.Equal(t, a.ID, wall.Author.ID)

	notes := e.notificationsFor(t, b.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationTimelinePost, notes[0].Type)
	require.NotNil(t, notes[0].PostID)
	assert.Equal(t, wall.ID, *notes[0].PostID)

	assert.Empty(t, e.notificationsFor(t, a.ID), "self posts never notify")
}

func TestEditPost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")
	e.friends(t, a, b)

	text, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "first", TimelineOwnerID: uintPtr(b.ID)})
	require.NoError(t, err)
	withImage, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "pic", Images: []string{"https://cdn.example.com/p.jpg"}})
	require.NoError(t, err)

	_, err = e.content.EditPost(ctx, text.ID, b.ID, "owner edit")
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = e.content.EditPost(ctx, text.ID, a.ID, "  ")
	assert.ErrorIs(t, err, services.ErrEmptyPost)

	edited, err := e.content.EditPost(ctx, text.ID, a.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", *edited.Content)
	assert.Equal(t, b.ID, edited.TimelineOwnerID)

	cleared, err := e.content.EditPost(ctx, withImage.ID, a.ID, "")
	require.NoError(t, err)
	assert.Nil(t, cleared.Content)
	assert.Len(t, cleared.Images, 1)

	_, err = e.content.EditPost(ctx, 12345, a.ID, "x")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeletePostCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")
	c := e.user(t, "Cid", "Moe")
	e.friends(t, a, b)

	p, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "on b", TimelineOwnerID: uintPtr(b.ID)})
	require.NoError(t, err)
	_, err = e.content.ToggleLike(ctx, p.ID, b.ID)
	require.NoError(t, err)
	_, err = e.content.AddComment(ctx, p.ID, b.ID, "nice")
	require.NoError(t, err)

	assert.ErrorIs(t, e.content.DeletePost(ctx, p.ID, c.ID), services.ErrForbidden)

	// the timeline owner may delete
	require.NoError(t, e.content.DeletePost(ctx, p.ID, b.ID))

	var n int64
	require.NoError(t, e.db.Model(&models.Post{}).Where("id = ?", p.ID).Count(&n).Error)
	assert.Zero(t, n)
	for _, model := range []interface{}{&models.Like{}, &models.Comment{}, &models.Notification{}} {
		require.NoError(t, e.db.Model(model).Where("post_id = ?", p.ID).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}

	assert.ErrorIs(t, e.content.DeletePost(ctx, p.ID, a.ID), services.ErrNotFound)
}

func TestToggleLikeParity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	p, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "like me"})
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		res, err := e.content.ToggleLike(ctx, p.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, i%2 == 1, res.Liked)
		assert.Equal(t, int64(i%2), res.Count)
	}

	res, err := e.content.ToggleLike(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(2), res.Count)

	// three likes by b produced three notifications; a's own like produced none
	notes := e.notificationsFor(t, a.ID)
	assert.Len(t, notes, 3)
	for _, n := range notes {
		assert.Equal(t, models.NotificationPostLiked, n.Type)
		assert.Equal(t, b.ID, n.ActorID)
	}

	_, err = e.content.ToggleLike(ctx, 999, a.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	p, err := e.content.CreatePost(ctx, a.ID, &models.CreatePostRequest{Content: "talk"})
	require.NoError(t, err)

	_, err = e.content.AddComment(ctx, p.ID, b.ID, "  ")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	first, err := e.content.AddComment(ctx, p.ID, b.ID, " first ")
	require.NoError(t, err)
	assert.Equal(t, "first", first.Content)
	assert.Equal(t, b.ID, first.Author.ID)

	_, err = e.content.AddComment(ctx, p.ID, a.ID, "reply")
	require.NoError(t, err)

	list, err := e.content.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "reply", list[1].Content)

	notes := e.notificationsFor(t, a.ID)
	require.Len(t, notes, 1, "self comment does not notify")
	assert.Equal(t, models.NotificationPostCommented, notes[0].Type)

	assert.ErrorIs(t, e.content.DeleteComment(ctx, p.ID, first.ID, a.ID), services.ErrForbidden)
	assert.ErrorIs(t, e.content.DeleteComment(ctx, p.ID+1, first.ID, b.ID), services.ErrNotFound)
	require.NoError(t, e.content.DeleteComment(ctx, p.ID, first.ID, b.ID))

	list, err = e.content.ListComments(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
