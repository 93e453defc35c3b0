package models

import (
	"fmt"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a directed request from RequesterID to AddresseeID. Rejection deletes the row,
// so there is no rejected status. PairKey holds the unordered pair and carries the unique index
// that keeps one row per pair.
type Friendship struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RequesterID uint             `json:"requesterId" gorm:"index;not null"`
	AddresseeID uint             `json:"addresseeId" gorm:"index;not null"`
	PairKey     string           `json:"-" gorm:"size:64;uniqueIndex;not null"`
	Status      FriendshipStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// OtherParty returns the participant that is not userID.
func (f *Friendship) OtherParty(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

func (f *Friendship) Involves(userID uint) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// PairKey builds the order-independent key for a pair of user ids.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// RelationStatus is the friendship state as seen from one side of the pair
type RelationStatus string

const (
	RelationNone            RelationStatus = "NONE"
	RelationPendingSent     RelationStatus = "PENDING_SENT"
	RelationPendingReceived RelationStatus = "PENDING_RECEIVED"
	RelationAccepted        RelationStatus = "ACCEPTED"
)

type FriendshipView struct {
	Status       RelationStatus `json:"status"`
	FriendshipID *uint          `json:"friendshipId,omitempty"`
}

// CreateFriendRequest defines the request body for sending a friend request
type CreateFriendRequest struct {
	AddresseeID uint `json:"addresseeId" validate:"required"`
}

// RespondFriendRequest defines the request body for accepting/rejecting a friend request
type RespondFriendRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
}

// FriendRequestView is a pending request with the other party's summary
type FriendRequestView struct {
	Friendship
	Requester *UserCompact `json:"requester,omitempty"`
	Addressee *UserCompact `json:"addressee,omitempty"`
}

// Suggestion is a user the caller may know, with the number of shared friends
type Suggestion struct {
	UserCompact
	MutualFriends int `json:"mutualFriends"`
}
