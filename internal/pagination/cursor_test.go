package pagination_test

import (
	"testing"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/pagination"
	"github.com/anonto42/friendsbook/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := pagination.Parse("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = pagination.Parse("2024-03-01T10:00:00.123Z")
	require.NoError(t, err)
	assert.Equal(t, uint(0), c.ID)
	assert.True(t, c.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 123000000, time.UTC)))

	c, err = pagination.Parse("2024-03-01T10:00:00Z_42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), c.ID)

	for _, bad := range []string{"yesterday", "2024-03-01T10:00:00Z_x", "2024-03-01T10:00:00Z_0"} {
		_, err := pagination.Parse(bad)
		assert.ErrorIs(t, err, pagination.ErrInvalidCursor, bad)
	}
}

func TestEncodeParse(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 500, time.UTC)
	c, err := pagination.Parse(pagination.Encode(at, 7))
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(at))
	assert.Equal(t, uint(7), c.ID)
}

func TestNextCursor(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Nil(t, pagination.NextCursor(3, 5, at, 1))
	assert.Nil(t, pagination.NextCursor(0, 0, at, 1))

	next := pagination.NextCursor(5, 5, at, 9)
	require.NotNil(t, next)
	assert.Equal(t, "2024-03-01T10:00:00Z_9", *next)
}

// Rows sharing a timestamp must neither repeat nor vanish across page boundaries.
func TestApplyWalksAllRowsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "Ada", "Walker")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var want []uint
	for i := 0; i < 11; i++ {
		// pairs of posts share a second
		p := &models.Post{AuthorID: author.ID, TimelineOwnerID: author.ID, CreatedAt: base.Add(time.Duration(i/2) * time.Second)}
		require.NoError(t, db.Create(p).Error)
		want = append([]uint{p.ID}, want...)
	}

	var got []uint
	var cursor *pagination.Cursor
	for pages := 0; pages < 10; pages++ {
		var rows []models.Post
		require.NoError(t, pagination.Apply(db.Model(&models.Post{}), cursor, "", 4).Find(&rows).Error)
		for _, r := range rows {
			got = append(got, r.ID)
		}
		if len(rows) == 0 {
			break
		}
		last := rows[len(rows)-1]
		next := pagination.NextCursor(len(rows), 4, last.CreatedAt, last.ID)
		if next == nil {
			break
		}
		var err error
		cursor, err = pagination.Parse(*next)
		require.NoError(t, err)
	}

	assert.Equal(t, want, got)
}
