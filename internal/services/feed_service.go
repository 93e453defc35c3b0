package services

import (
	"context"
	"fmt"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/pagination"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"go.uber.org/zap"
)

// TimelinePage is a timeline page, or Restricted when the viewer may not see it
type TimelinePage struct {
	pagination.Page[models.PostWithDetails]
	Restricted bool `json:"-"`
}

// FeedService assembles the paginated read views: the global feed, a profile
// timeline and a conversation's message history.
type FeedService struct {
	store  *repositories.Store
	logger *zap.Logger
}

func NewFeedService(store *repositories.Store, logger *zap.Logger) *FeedService {
	return &FeedService{store: store, logger: logger}
}

// Feed returns posts written by the viewer or any accepted friend, newest first
func (s *FeedService) Feed(ctx context.Context, viewerID uint, rawCursor string) (*pagination.Page[models.PostWithDetails], error) {
	cursor, err := parseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	store := s.store.WithContext(ctx)

	friendIDs, err := store.Friendships.GetFriendIDs(viewerID)
	if err != nil {
		return nil, err
	}
	authorIDs := append([]uint{viewerID}, friendIDs...)

	posts, err := store.Posts.GetPostsByAuthors(authorIDs, cursor, pagination.FeedPageSize)
	if err != nil {
		return nil, err
	}
	return postPage(store, viewerID, posts, pagination.FeedPageSize)
}

// Timeline returns the posts on ownerID's wall. Viewers who are neither the
// owner nor a friend get a restricted page instead of rows.
func (s *FeedService) Timeline(ctx context.Context, viewerID, ownerID uint, rawCursor string) (*TimelinePage, error) {
	cursor, err := parseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	store := s.store.WithContext(ctx)

	if _, err := store.Users.GetUserByID(ownerID); err != nil {
		return nil, notFound(err, "user")
	}
	if viewerID != ownerID {
		ok, err := areFriends(store, viewerID, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &TimelinePage{Restricted: true}, nil
		}
	}

	posts, err := store.Posts.GetPostsByTimelineOwner(ownerID, cursor, pagination.TimelinePageSize)
	if err != nil {
		return nil, err
	}
	page, err := postPage(store, viewerID, posts, pagination.TimelinePageSize)
	if err != nil {
		return nil, err
	}
	return &TimelinePage{Page: *page}, nil
}

// History returns one page of a conversation in display order (oldest first).
// Reading the newest page marks the other participant's messages as read.
func (s *FeedService) History(ctx context.Context, conversationID, viewerID uint, rawCursor string) (*pagination.Page[models.MessageWithSender], error) {
	cursor, err := parseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	store := s.store.WithContext(ctx)

	if err := requireParticipant(store, conversationID, viewerID); err != nil {
		return nil, err
	}

	msgs, err := store.Messages.GetMessages(conversationID, cursor, pagination.MessagePageSize)
	if err != nil {
		return nil, err
	}

	if cursor == nil {
		if _, err := store.Messages.MarkReadFor(conversationID, viewerID); err != nil {
			return nil, err
		}
	}

	page := &pagination.Page[models.MessageWithSender]{Items: []models.MessageWithSender{}}
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		page.NextCursor = pagination.NextCursor(len(msgs), pagination.MessagePageSize, last.CreatedAt, last.ID)
	}

	items, err := withSenders(store, msgs)
	if err != nil {
		return nil, err
	}
	for i := len(items) - 1; i >= 0; i-- {
		page.Items = append(page.Items, items[i])
	}
	return page, nil
}

func requireParticipant(store *repositories.Store, conversationID, userID uint) error {
	ok, err := store.Conversations.IsParticipant(conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a participant of this conversation", ErrForbidden)
	}
	return nil
}

func withSenders(store *repositories.Store, msgs []models.Message) ([]models.MessageWithSender, error) {
	senderIDs := make([]uint, 0, 2)
	seen := make(map[uint]bool, 2)
	for _, m := range msgs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders, err := store.Users.GetUsersByIDs(senderIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.MessageWithSender, 0, len(msgs))
	for _, m := range msgs {
		item := models.MessageWithSender{Message: m}
		if u, ok := senders[m.SenderID]; ok {
			item.Sender = u.ToCompact()
		}
		out = append(out, item)
	}
	return out, nil
}

func postPage(store *repositories.Store, viewerID uint, posts []models.Post, size int) (*pagination.Page[models.PostWithDetails], error) {
	items, err := assemblePosts(store, viewerID, posts)
	if err != nil {
		return nil, err
	}
	page := &pagination.Page[models.PostWithDetails]{Items: items}
	if len(posts) > 0 {
		last := posts[len(posts)-1]
		page.NextCursor = pagination.NextCursor(len(posts), size, last.CreatedAt, last.ID)
	}
	return page, nil
}

// assemblePosts attaches author and owner summaries, like and comment counts,
// and whether viewerID has liked each post.
func assemblePosts(store *repositories.Store, viewerID uint, posts []models.Post) ([]models.PostWithDetails, error) {
	out := make([]models.PostWithDetails, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]uint, 0, len(posts))
	userIDs := make([]uint, 0, len(posts)*2)
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDs = append(userIDs, p.AuthorID, p.TimelineOwnerID)
	}

	users, err := store.Users.GetUsersByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	likes, err := store.Likes.CountByPostIDs(postIDs)
	if err != nil {
		return nil, err
	}
	comments, err := store.Comments.CountByPostIDs(postIDs)
	if err != nil {
		return nil, err
	}
	liked, err := store.Likes.GetLikedPostIDs(viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		item := models.PostWithDetails{
			Post:          p,
			LikesCount:    likes[p.ID],
			CommentsCount: comments[p.ID],
			Liked:         liked[p.ID],
		}
		if u, ok := users[p.AuthorID]; ok {
			item.Author = u.ToCompact()
		}
		if u, ok := users[p.TimelineOwnerID]; ok {
			item.TimelineOwner = u.ToCompact()
		}
		out = append(out, item)
	}
	return out, nil
}
