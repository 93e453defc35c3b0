package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"go.uber.org/zap"
)

// ContentService owns posts, comments and likes
type ContentService struct {
	store    *repositories.Store
	notifier *NotificationService
	logger   *zap.Logger
}

func NewContentService(store *repositories.Store, notifier *NotificationService, logger *zap.Logger) *ContentService {
	return &ContentService{store: store, notifier: notifier, logger: logger}
}

// CreatePost publishes a post on the author's wall, or on a friend's wall when
// TimelineOwnerID names someone else.
func (s *ContentService) CreatePost(ctx context.Context, authorID uint, req *models.CreatePostRequest) (*models.PostWithDetails, error) {
	store := s.store.WithContext(ctx)

	content := strings.TrimSpace(req.Content)
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if content == "" && len(images) == 0 {
		return nil, ErrEmptyPost
	}

	ownerID := authorID
	if req.TimelineOwnerID != nil && *req.TimelineOwnerID != 0 {
		ownerID = *req.TimelineOwnerID
	}
	if ownerID != authorID {
		if _, err := store.Users.GetUserByID(ownerID); err != nil {
			return nil, notFound(err, "timeline owner")
		}
		ok, err := areFriends(store, authorID, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: you can only post on your friends' timelines", ErrForbidden)
		}
	}

	post := &models.Post{
		Images:          images,
		AuthorID:        authorID,
		TimelineOwnerID: ownerID,
	}
	if content != "" {
		post.Content = &content
	}
	if err := store.Posts.CreatePost(post); err != nil {
		return nil, err
	}

	if ownerID != authorID {
		s.notifier.Notify(ctx, ownerID, authorID, models.NotificationTimelinePost, &post.ID)
	}

	details, err := assemblePosts(store, authorID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// EditPost replaces the text of the actor's own post
func (s *ContentService) EditPost(ctx context.Context, postID, actorID uint, content string) (*models.PostWithDetails, error) {
	store := s.store.WithContext(ctx)

	post, err := store.Posts.GetPostByID(postID)
	if err != nil {
		return nil, notFound(err, "post")
	}
	if post.AuthorID != actorID {
		return nil, fmt.Errorf("%w: only the author can edit a post", ErrForbidden)
	}

	var text *string
	if trimmed := strings.TrimSpace(content); trimmed != "" {
		text = &trimmed
	}
	if text == nil && len(post.Images) == 0 {
		return nil, ErrEmptyPost
	}
	if err := store.Posts.UpdatePostContent(post.ID, text); err != nil {
		return nil, err
	}
	post.Content = text

	details, err := assemblePosts(store, actorID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// DeletePost removes a post and everything hanging off it. The author and the
// timeline owner may both delete.
func (s *ContentService) DeletePost(ctx context.Context, postID, actorID uint) error {
	store := s.store.WithContext(ctx)

	post, err := store.Posts.GetPostByID(postID)
	if err != nil {
		return notFound(err, "post")
	}
	if post.AuthorID != actorID && post.TimelineOwnerID != actorID {
		return fmt.Errorf("%w: only the author or timeline owner can delete a post", ErrForbidden)
	}
	return store.Transaction(func(tx *repositories.Store) error {
		return tx.Posts.DeletePost(post.ID)
	})
}

// ToggleLike flips the actor's like on a post. The count is read back from the
// like table after the change.
func (s *ContentService) ToggleLike(ctx context.Context, postID, actorID uint) (*models.LikeResult, error) {
	store := s.store.WithContext(ctx)

	post, err := store.Posts.GetPostByID(postID)
	if err != nil {
		return nil, notFound(err, "post")
	}

	removed, err := store.Likes.DeleteLike(post.ID, actorID)
	if err != nil {
		return nil, err
	}

	liked := !removed
	if liked {
		err := store.Likes.CreateLike(&models.Like{PostID: post.ID, UserID: actorID})
		switch {
		case isDuplicate(err):
			// a concurrent toggle created it first; the post is liked either way
		case err != nil:
			return nil, err
		default:
			s.notifier.Notify(ctx, post.AuthorID, actorID, models.NotificationPostLiked, &post.ID)
		}
	}

	count, err := store.Likes.GetLikesCountByPostID(post.ID)
	if err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: liked, Count: count}, nil
}

// ListComments returns a post's comments oldest first
func (s *ContentService) ListComments(ctx context.Context, postID uint) ([]models.CommentWithAuthor, error) {
	store := s.store.WithContext(ctx)

	if _, err := store.Posts.GetPostByID(postID); err != nil {
		return nil, notFound(err, "post")
	}
	comments, err := store.Comments.GetCommentsByPostID(postID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := store.Users.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		item := models.CommentWithAuthor{Comment: c}
		if u, ok := authors[c.AuthorID]; ok {
			item.Author = u.ToCompact()
		}
		out = append(out, item)
	}
	return out, nil
}

// AddComment comments on a post and notifies its author
func (s *ContentService) AddComment(ctx context.Context, postID, actorID uint, content string) (*models.CommentWithAuthor, error) {
	store := s.store.WithContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment cannot be empty", ErrInvalidInput)
	}
	post, err := store.Posts.GetPostByID(postID)
	if err != nil {
		return nil, notFound(err, "post")
	}
	author, err := store.Users.GetUserByID(actorID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: actorID, Content: content}
	if err := store.Comments.CreateComment(comment); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, post.AuthorID, actorID, models.NotificationPostCommented, &post.ID)
	return &models.CommentWithAuthor{Comment: *comment, Author: author.ToCompact()}, nil
}

// DeleteComment removes the actor's own comment from a post
func (s *ContentService) DeleteComment(ctx context.Context, postID, commentID, actorID uint) error {
	store := s.store.WithContext(ctx)

	comment, err := store.Comments.GetCommentByID(commentID)
	if err != nil {
		return notFound(err, "comment")
	}
	if comment.PostID != postID {
		return fmt.Errorf("%w: comment", ErrNotFound)
	}
	if comment.AuthorID != actorID {
		return fmt.Errorf("%w: only the author can delete a comment", ErrForbidden)
	}
	return store.Comments.DeleteComment(comment.ID)
}
