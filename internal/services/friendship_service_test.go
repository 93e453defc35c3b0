package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRequestFriendship(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	_, err := e.friendships.Request(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = e.friendships.Request(ctx, a.ID, 9999)
	assert.ErrorIs(t, err, services.ErrNotFound)

	f, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, f.Status)
	assert.Equal(t, a.ID, f.RequesterID)
	assert.Equal(t, b.ID, f.AddresseeID)

	_, err = e.friendships.Request(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, services.ErrConflict)
	_, err = e.friendships.Request(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, services.ErrConflict)

	notes := e.notificationsFor(t, b.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationFriendRequest, notes[0].Type)
	assert.Equal(t, a.ID, notes[0].ActorID)
}

func TestConcurrentRequestsKeepOneRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		wg.Add(1)
		go func(i int, from, to uint) {
			defer wg.Done()
			_, errs[i] = e.friendships.Request(ctx, from, to)
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, services.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	var rows int64
	require.NoError(t, e.db.Model(&models.Friendship{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestRespondToFriendRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")
	c := e.user(t, "Cid", "Moe")

	f, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = e.friendships.Respond(ctx, f.ID, a.ID, "accept")
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = e.friendships.Respond(ctx, f.ID, c.ID, "accept")
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = e.friendships.Respond(ctx, f.ID, b.ID, "maybe")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	_, err = e.friendships.Respond(ctx, 4242, b.ID, "accept")
	assert.ErrorIs(t, err, services.ErrNotFound)

	accepted, err := e.friendships.Respond(ctx, f.ID, b.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipAccepted, accepted.Status)

	_, err = e.friendships.Respond(ctx, f.ID, b.ID, "accept")
	assert.ErrorIs(t, err, services.ErrConflict)

	notes := e.notificationsFor(t, a.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationFriendAccepted, notes[0].Type)
	assert.Equal(t, b.ID, notes[0].ActorID)
}

func TestRejectDeletesRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	f, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)
	before := e.countNotifications(t)

	out, err := e.friendships.Respond(ctx, f.ID, b.ID, "reject")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, before, e.countNotifications(t))

	view, err := e.friendships.StatusBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationNone, view.Status)

	// the pair is free again
	_, err = e.friendships.Request(ctx, b.ID, a.ID)
	require.NoError(t, err)
}

func TestConcurrentAcceptSucceedsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	f, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.friendships.Respond(ctx, f.ID, b.ID, "accept")
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, services.ErrConflict)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, e.notificationsFor(t, a.ID), 1)
}

func TestRejectLosesToAcceptedRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	f, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)

	// accept the row after reject has read it as pending but before its delete runs
	const hook = "test:accept_before_delete"
	require.NoError(t, e.db.Callback().Delete().Before("gorm:delete").Register(hook, func(tx *gorm.DB) {
		if tx.Statement.Table != "friendships" {
			return
		}
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE friendships SET status = ? WHERE id = ?", string(models.FriendshipAccepted), f.ID)
		require.NoError(t, err)
	}))
	t.Cleanup(func() { _ = e.db.Callback().Delete().Remove(hook) })

	_, err = e.friendships.Respond(ctx, f.ID, b.ID, "reject")
	assert.ErrorIs(t, err, services.ErrConflict)

	var row models.Friendship
	require.NoError(t, e.db.First(&row, f.ID).Error)
	assert.Equal(t, models.FriendshipAccepted, row.Status)
}

func TestConcurrentAcceptAndRejectAgree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	f, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	actions := []string{"accept", "reject"}
	errs := make([]error, len(actions))
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action string) {
			defer wg.Done()
			_, errs[i] = e.friendships.Respond(ctx, f.ID, b.ID, action)
		}(i, action)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.True(t, errors.Is(err, services.ErrConflict) || errors.Is(err, services.ErrNotFound), err)
	}
	require.Equal(t, 1, winners)

	var rows []models.Friendship
	require.NoError(t, e.db.Where("id = ?", f.ID).Find(&rows).Error)
	accepted := e.notificationsFor(t, a.ID)
	if errs[0] == nil {
		require.Len(t, rows, 1)
		assert.Equal(t, models.FriendshipAccepted, rows[0].Status)
		assert.Len(t, accepted, 1)
	} else {
		assert.Empty(t, rows)
		assert.Empty(t, accepted)
	}
}

func TestTerminate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")
	c := e.user(t, "Cid", "Moe")

	pending, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, e.friendships.Terminate(ctx, pending.ID, c.ID), services.ErrForbidden)
	assert.ErrorIs(t, e.friendships.Terminate(ctx, 777, a.ID), services.ErrNotFound)

	// cancel by requester
	require.NoError(t, e.friendships.Terminate(ctx, pending.ID, a.ID))

	e.friends(t, a, c)
	f, err := e.store.Friendships.GetFriendshipBetween(a.ID, c.ID)
	require.NoError(t, err)

	// unfriend by the addressee side
	require.NoError(t, e.friendships.Terminate(ctx, f.ID, c.ID))
	friends, err := e.friendships.Friends(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestStatusBetween(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")

	view, err := e.friendships.StatusBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationNone, view.Status)
	assert.Nil(t, view.FriendshipID)

	f, err := e.friendships.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)

	view, err = e.friendships.StatusBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationPendingSent, view.Status)
	require.NotNil(t, view.FriendshipID)
	assert.Equal(t, f.ID, *view.FriendshipID)

	view, err = e.friendships.StatusBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationPendingReceived, view.Status)

	_, err = e.friendships.Respond(ctx, f.ID, b.ID, "accept")
	require.NoError(t, err)

	view, err = e.friendships.StatusBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationAccepted, view.Status)
}

func TestFriendLists(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "Ann", "Lee")
	b := e.user(t, "Bob", "Ray")
	c := e.user(t, "Cid", "Moe")
	d := e.user(t, "Dee", "Fox")

	e.friends(t, a, b)
	_, err := e.friendships.Request(ctx, c.ID, a.ID)
	require.NoError(t, err)
	_, err = e.friendships.Request(ctx, a.ID, d.ID)
	require.NoError(t, err)

	friends, err := e.friendships.Friends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, b.ID, friends[0].ID)

	in, err := e.friendships.IncomingRequests(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, in, 1)
	require.NotNil(t, in[0].Requester)
	assert.Equal(t, c.ID, in[0].Requester.ID)
	assert.Nil(t, in[0].Addressee)

	out, err := e.friendships.OutgoingRequests(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Addressee)
	assert.Equal(t, d.ID, out[0].Addressee.ID)
}

func TestSuggest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(first string, joined int) *models.User {
		u := &models.User{FirstName: first, LastName: "X", Email: first + "@example.com", CreatedAt: base.Add(time.Duration(joined) * time.Hour)}
		require.NoError(t, e.db.Create(u).Error)
		return u
	}
	me := mk("me", 0)
	f1 := mk("f1", 1)
	f2 := mk("f2", 2)
	two := mk("two", 3)      // friend of f1 and f2
	oneOld := mk("old", 4)   // friend of f1
	oneNew := mk("new", 5)   // friend of f2, joined later than oneOld
	pending := mk("pend", 6) // friend of f1 but already requested
	loner := mk("loner", 7)

	e.friends(t, me, f1)
	e.friends(t, me, f2)
	e.friends(t, f1, two)
	e.friends(t, f2, two)
	e.friends(t, f1, oneOld)
	e.friends(t, f2, oneNew)
	e.friends(t, f1, pending)
	_, err := e.friendships.Request(ctx, me.ID, pending.ID)
	require.NoError(t, err)

	got, err := e.friendships.Suggest(ctx, me.ID, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, two.ID, got[0].ID)
	assert.Equal(t, 2, got[0].MutualFriends)
	assert.Equal(t, oneNew.ID, got[1].ID)
	assert.Equal(t, oneOld.ID, got[2].ID)
	assert.Equal(t, loner.ID, got[3].ID, "padded with the newest unconnected user")
	assert.Zero(t, got[3].MutualFriends)

	for _, s := range got {
		assert.NotEqual(t, me.ID, s.ID)
		assert.NotEqual(t, pending.ID, s.ID)
		assert.NotEqual(t, f1.ID, s.ID)
	}

	count, err := e.friendships.MutualFriendCount(ctx, me.ID, two.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
