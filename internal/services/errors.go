// Package services holds the domain rules of the social graph: friendships,
// content, feeds, notifications and conversations.
package services

import (
	"errors"
	"fmt"

	"github.com/anonto42/friendsbook/backend/internal/pagination"
	"gorm.io/gorm"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")

	ErrEmptyPost = fmt.Errorf("%w: post must have content or at least one image", ErrInvalidInput)
)

// notFound turns gorm.ErrRecordNotFound into ErrNotFound and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func parseCursor(raw string) (*pagination.Cursor, error) {
	c, err := pagination.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return c, nil
}
