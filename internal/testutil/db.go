// Package testutil provides a throwaway relational database for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a sqlite file under t.TempDir with every model migrated. The pool
// is capped at one connection, so concurrent transactions run one at a time.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// CreateUser inserts a user named first/last and returns it.
func CreateUser(t *testing.T, db *gorm.DB, first, last string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName: first,
		LastName:  last,
		Email:     first + "." + last + "@example.com",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// MakeFriends stores an accepted friendship between a and b.
func MakeFriends(t *testing.T, db *gorm.DB, a, b uint) *models.Friendship {
	t.Helper()
	f := &models.Friendship{
		RequesterID: a,
		AddresseeID: b,
		PairKey:     models.PairKey(a, b),
		Status:      models.FriendshipAccepted,
	}
	require.NoError(t, db.Create(f).Error)
	return f
}
