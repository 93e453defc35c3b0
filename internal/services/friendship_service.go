package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultSuggestionLimit = 6
	MaxSuggestionLimit     = 20
)

// FriendshipService owns the friendship state machine and graph reads
type FriendshipService struct {
	store    *repositories.Store
	notifier *NotificationService
	logger   *zap.Logger
}

func NewFriendshipService(store *repositories.Store, notifier *NotificationService, logger *zap.Logger) *FriendshipService {
	return &FriendshipService{store: store, notifier: notifier, logger: logger}
}

// Request creates a pending friendship from requester to addressee and
// notifies the addressee. Any existing row for the pair is a conflict.
func (s *FriendshipService) Request(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	if addresseeID == 0 || requesterID == addresseeID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", ErrInvalidInput)
	}

	store := s.store.WithContext(ctx)
	if _, err := store.Users.GetUserByID(addresseeID); err != nil {
		return nil, notFound(err, "user")
	}

	f := &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipPending,
	}
	err := store.Transaction(func(tx *repositories.Store) error {
		_, err := tx.Friendships.GetFriendshipBetween(requesterID, addresseeID)
		if err == nil {
			return fmt.Errorf("%w: friendship already exists", ErrConflict)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Friendships.CreateFriendship(f)
	})
	if isDuplicate(err) {
		return nil, fmt.Errorf("%w: friendship already exists", ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, addresseeID, requesterID, models.NotificationFriendRequest, nil)
	return f, nil
}

// Respond lets the addressee accept or reject a pending request. Accept returns
// the updated row; reject deletes it and returns nil.
func (s *FriendshipService) Respond(ctx context.Context, friendshipID, actorID uint, action string) (*models.Friendship, error) {
	store := s.store.WithContext(ctx)

	f, err := store.Friendships.GetFriendshipByID(friendshipID)
	if err != nil {
		return nil, notFound(err, "friendship")
	}
	if f.AddresseeID != actorID {
		return nil, fmt.Errorf("%w: only the addressee can respond to a friend request", ErrForbidden)
	}

	switch action {
	case "accept":
		ok, err := store.Friendships.AcceptFriendship(f.ID, actorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, s.staleRequest(store, f.ID)
		}
		f, err = store.Friendships.GetFriendshipByID(f.ID)
		if err != nil {
			return nil, notFound(err, "friendship")
		}
		s.notifier.Notify(ctx, f.RequesterID, actorID, models.NotificationFriendAccepted, nil)
		return f, nil

	case "reject":
		ok, err := store.Friendships.RejectFriendship(f.ID, actorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, s.staleRequest(store, f.ID)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: action must be accept or reject", ErrInvalidInput)
	}
}

// staleRequest explains why a conditional accept or reject matched no row.
func (s *FriendshipService) staleRequest(store *repositories.Store, id uint) error {
	if _, err := store.Friendships.GetFriendshipByID(id); err != nil {
		return notFound(err, "friendship")
	}
	return fmt.Errorf("%w: friend request is no longer pending", ErrConflict)
}

// Terminate deletes the row whatever its status. Either participant may do it.
func (s *FriendshipService) Terminate(ctx context.Context, friendshipID, actorID uint) error {
	store := s.store.WithContext(ctx)

	f, err := store.Friendships.GetFriendshipByID(friendshipID)
	if err != nil {
		return notFound(err, "friendship")
	}
	if !f.Involves(actorID) {
		return fmt.Errorf("%w: not a participant of this friendship", ErrForbidden)
	}
	if _, err := store.Friendships.DeleteFriendship(f.ID); err != nil {
		return err
	}
	return nil
}

// StatusBetween reports the friendship state from viewer's side
func (s *FriendshipService) StatusBetween(ctx context.Context, viewerID, otherID uint) (models.FriendshipView, error) {
	return statusBetween(s.store.WithContext(ctx), viewerID, otherID)
}

func statusBetween(store *repositories.Store, viewerID, otherID uint) (models.FriendshipView, error) {
	view := models.FriendshipView{Status: models.RelationNone}
	if viewerID == otherID {
		return view, nil
	}

	f, err := store.Friendships.GetFriendshipBetween(viewerID, otherID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return view, nil
	}
	if err != nil {
		return view, err
	}

	id := f.ID
	view.FriendshipID = &id
	switch {
	case f.Status == models.FriendshipAccepted:
		view.Status = models.RelationAccepted
	case f.RequesterID == viewerID:
		view.Status = models.RelationPendingSent
	default:
		view.Status = models.RelationPendingReceived
	}
	return view, nil
}

// areFriends reports whether an accepted friendship links a and b
func areFriends(store *repositories.Store, a, b uint) (bool, error) {
	f, err := store.Friendships.GetFriendshipBetween(a, b)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Status == models.FriendshipAccepted, nil
}

// Friends returns the summaries of userID's accepted friends
func (s *FriendshipService) Friends(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	store := s.store.WithContext(ctx)

	ids, err := store.Friendships.GetFriendIDs(userID)
	if err != nil {
		return nil, err
	}
	users, err := store.Users.GetUsersByIDs(ids)
	if err != nil {
		return nil, err
	}

	friends := make([]models.UserCompact, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			friends = append(friends, u.ToCompact())
		}
	}
	return friends, nil
}

// IncomingRequests returns pending requests addressed to userID with the requester's summary
func (s *FriendshipService) IncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	store := s.store.WithContext(ctx)
	rows, err := store.Friendships.GetIncomingRequests(userID)
	if err != nil {
		return nil, err
	}
	return requestViews(store, rows, userID)
}

// OutgoingRequests returns pending requests sent by userID with the addressee's summary
func (s *FriendshipService) OutgoingRequests(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	store := s.store.WithContext(ctx)
	rows, err := store.Friendships.GetOutgoingRequests(userID)
	if err != nil {
		return nil, err
	}
	return requestViews(store, rows, userID)
}

func requestViews(store *repositories.Store, rows []models.Friendship, userID uint) ([]models.FriendRequestView, error) {
	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].OtherParty(userID))
	}
	users, err := store.Users.GetUsersByIDs(ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.FriendRequestView, 0, len(rows))
	for _, f := range rows {
		v := models.FriendRequestView{Friendship: f}
		if u, ok := users[f.OtherParty(userID)]; ok {
			c := u.ToCompact()
			if f.RequesterID == userID {
				v.Addressee = &c
			} else {
				v.Requester = &c
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// MutualFriendCount counts users who are accepted friends of both a and b
func (s *FriendshipService) MutualFriendCount(ctx context.Context, a, b uint) (int64, error) {
	return mutualFriendCount(s.store.WithContext(ctx), a, b)
}

func mutualFriendCount(store *repositories.Store, a, b uint) (int64, error) {
	aFriends, err := store.Friendships.GetFriendIDs(a)
	if err != nil {
		return 0, err
	}
	bFriends, err := store.Friendships.GetFriendIDs(b)
	if err != nil {
		return 0, err
	}

	set := make(map[uint]struct{}, len(aFriends))
	for _, id := range aFriends {
		set[id] = struct{}{}
	}
	var n int64
	for _, id := range bFriends {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n, nil
}

// Suggest ranks friends-of-friends by mutual friend count, newest user first
// on ties, and pads with the newest users that have no relationship with userID.
func (s *FriendshipService) Suggest(ctx context.Context, userID uint, limit int) ([]models.Suggestion, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}
	store := s.store.WithContext(ctx)

	friendIDs, err := store.Friendships.GetFriendIDs(userID)
	if err != nil {
		return nil, err
	}
	related, err := store.Friendships.GetRelatedUserIDs(userID)
	if err != nil {
		return nil, err
	}

	excluded := map[uint]bool{userID: true}
	for _, id := range related {
		excluded[id] = true
	}
	isFriend := make(map[uint]bool, len(friendIDs))
	for _, id := range friendIDs {
		isFriend[id] = true
	}

	edges, err := store.Friendships.GetAcceptedAmong(friendIDs)
	if err != nil {
		return nil, err
	}
	mutual := make(map[uint]int)
	for _, e := range edges {
		if isFriend[e.RequesterID] && !excluded[e.AddresseeID] {
			mutual[e.AddresseeID]++
		}
		if isFriend[e.AddresseeID] && !excluded[e.RequesterID] {
			mutual[e.RequesterID]++
		}
	}

	candidateIDs := make([]uint, 0, len(mutual))
	for id := range mutual {
		candidateIDs = append(candidateIDs, id)
	}
	users, err := store.Users.GetUsersByIDs(candidateIDs)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.User, 0, len(users))
	for _, u := range users {
		ranked = append(ranked, u)
	}
	sort.Slice(ranked, func(i, j int) bool {
		mi, mj := mutual[ranked[i].ID], mutual[ranked[j].ID]
		if mi != mj {
			return mi > mj
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		}
		return ranked[i].ID > ranked[j].ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]models.Suggestion, 0, limit)
	for _, u := range ranked {
		out = append(out, models.Suggestion{UserCompact: u.ToCompact(), MutualFriends: mutual[u.ID]})
		excluded[u.ID] = true
	}

	if len(out) < limit {
		skip := make([]uint, 0, len(excluded))
		for id := range excluded {
			skip = append(skip, id)
		}
		newest, err := store.Users.GetNewestUsers(skip, limit-len(out))
		if err != nil {
			return nil, err
		}
		for _, u := range newest {
			out = append(out, models.Suggestion{UserCompact: u.ToCompact()})
		}
	}
	return out, nil
}
