package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	searchMinQueryLength = 2
	searchLimit          = 20
	profileFriendsLimit  = 9
)

// UserService serves profile reads, profile edits and people search
type UserService struct {
	store  *repositories.Store
	logger *zap.Logger
}

func NewUserService(store *repositories.Store, logger *zap.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.store.WithContext(ctx).Users.GetUserByID(id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// Profile returns id's profile with the viewer's friendship status and friend counts
func (s *UserService) Profile(ctx context.Context, viewerID, id uint) (*models.ProfileView, error) {
	store := s.store.WithContext(ctx)

	u, err := store.Users.GetUserByID(id)
	if err != nil {
		return nil, notFound(err, "user")
	}

	view := &models.ProfileView{User: *u}
	if view.FriendshipStatus, err = statusBetween(store, viewerID, id); err != nil {
		return nil, err
	}
	if view.FriendCount, err = store.Friendships.CountFriends(id); err != nil {
		return nil, err
	}
	if viewerID != id {
		if view.MutualFriendCount, err = mutualFriendCount(store, viewerID, id); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// UpdateProfile applies the non-nil fields of req to the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *models.UpdateProfileRequest) (*models.User, error) {
	store := s.store.WithContext(ctx)

	u, err := store.Users.GetUserByID(userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if u.FirstName == "" || u.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if req.Bio != nil {
		u.Bio = req.Bio
	}
	if req.Hometown != nil {
		u.Hometown = req.Hometown
	}
	if req.ProfilePicture != nil {
		u.ProfilePicture = req.ProfilePicture
	}
	if req.CoverPhoto != nil {
		u.CoverPhoto = req.CoverPhoto
	}
	if req.Birthday != nil {
		if *req.Birthday == "" {
			u.Birthday = nil
		} else {
			b, err := time.Parse("2006-01-02", *req.Birthday)
			if err != nil {
				return nil, fmt.Errorf("%w: birthday must be YYYY-MM-DD", ErrInvalidInput)
			}
			u.Birthday = &b
		}
	}

	if err := store.Users.UpdateUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Search matches every whitespace-separated term of q against first or last
// name. Queries shorter than two characters return nothing.
func (s *UserService) Search(ctx context.Context, viewerID uint, q string) ([]models.UserCompact, error) {
	q = strings.TrimSpace(q)
	if len(q) < searchMinQueryLength {
		return []models.UserCompact{}, nil
	}

	users, err := s.store.WithContext(ctx).Users.SearchUsers(strings.Fields(q), viewerID, searchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out, nil
}

// UserFriends returns up to nine of id's friends and the total friend count
func (s *UserService) UserFriends(ctx context.Context, id uint) ([]models.UserCompact, int64, error) {
	store := s.store.WithContext(ctx)

	if _, err := store.Users.GetUserByID(id); err != nil {
		return nil, 0, notFound(err, "user")
	}
	ids, err := store.Friendships.GetFriendIDs(id)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(ids))
	if len(ids) > profileFriendsLimit {
		ids = ids[:profileFriendsLimit]
	}

	users, err := store.Users.GetUsersByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	friends := make([]models.UserCompact, 0, len(ids))
	for _, fid := range ids {
		if u, ok := users[fid]; ok {
			friends = append(friends, u.ToCompact())
		}
	}
	return friends, total, nil
}

// ResolveFirebaseUser maps a verified Firebase identity to a local user,
// linking by email or creating the user on first sight.
func (s *UserService) ResolveFirebaseUser(ctx context.Context, uid, email, displayName string) (*models.User, error) {
	store := s.store.WithContext(ctx)

	u, err := store.Users.GetUserByFirebaseUID(uid)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if email != "" {
		u, err = store.Users.GetUserByEmail(email)
		if err == nil {
			u.FirebaseUID = &uid
			if err := store.Users.UpdateUser(u); err != nil {
				return nil, err
			}
			return u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	first, last, _ := strings.Cut(strings.TrimSpace(displayName), " ")
	if first == "" {
		first = "New"
	}
	if last == "" {
		last = "User"
	}
	if email == "" {
		email = uid + "@firebase.local"
	}
	u = &models.User{
		FirstName:   first,
		LastName:    strings.TrimSpace(last),
		Email:       email,
		FirebaseUID: &uid,
	}
	if err := store.Users.CreateUser(u); err != nil {
		if isDuplicate(err) {
			return store.Users.GetUserByFirebaseUID(uid)
		}
		return nil, err
	}
	s.logger.Info("provisioned user from firebase identity", zap.Uint("user_id", u.ID))
	return u, nil
}
