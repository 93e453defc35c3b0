package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the profile record owned by the identity gateway. The core only reads it by id.
type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	FirstName      string     `json:"firstName" gorm:"size:100"`
	LastName       string     `json:"lastName" gorm:"size:100"`
	Email          string     `json:"email" gorm:"uniqueIndex;size:255"`
	ProfilePicture *string    `json:"profilePicture"`
	CoverPhoto     *string    `json:"coverPhoto"`
	Bio            *string    `json:"bio"`
	Hometown       *string    `json:"hometown"`
	Birthday       *time.Time `json:"birthday"`
	FirebaseUID    *string    `json:"-" gorm:"uniqueIndex;size:128"` // Link to Firebase User UID
	CreatedAt      time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time  `json:"-"`
}

// UserCompact is the summary embedded in posts, comments, messages and notifications
type UserCompact struct {
	ID             uint    `json:"id"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	ProfilePicture *string `json:"profilePicture"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
	}
}

// UpdateProfileRequest defines the request body for updating the caller's own profile
type UpdateProfileRequest struct {
	FirstName      *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Bio            *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Hometown       *string `json:"hometown,omitempty" validate:"omitempty,max=100"`
	Birthday       *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ProfilePicture *string `json:"profilePicture,omitempty" validate:"omitempty,url"`
	CoverPhoto     *string `json:"coverPhoto,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ProfileView is a user profile as seen by a viewer
type ProfileView struct {
	User
	FriendshipStatus  FriendshipView `json:"friendshipStatus"`
	FriendCount       int64          `json:"friendCount"`
	MutualFriendCount int64          `json:"mutualFriendCount"`
}
