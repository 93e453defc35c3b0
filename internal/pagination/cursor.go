// Package pagination implements the keyset cursor shared by the feed, the
// profile timeline and conversation history.
package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Page sizes per view.
const (
	FeedPageSize     = 20
	TimelinePageSize = 15
	MessagePageSize  = 30
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the last row of a page. Rows strictly after it in
// (created_at DESC, id DESC) order form the next page. A cursor without an id
// falls back to a plain created_at < t comparison.
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

// Parse decodes a cursor query value. An empty value means "first page" and
// returns nil.
func Parse(raw string) (*Cursor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	ts, idPart, hasID := strings.Cut(raw, "_")
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCursor, raw)
	}

	c := &Cursor{CreatedAt: t.UTC()}
	if hasID {
		id, err := strconv.ParseUint(idPart, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCursor, raw)
		}
		c.ID = uint(id)
	}
	return c, nil
}

// Encode renders the cursor for the row (createdAt, id).
func Encode(createdAt time.Time, id uint) string {
	return Cursor{CreatedAt: createdAt, ID: id}.String()
}

func (c Cursor) String() string {
	s := c.CreatedAt.UTC().Format(time.RFC3339Nano)
	if c.ID == 0 {
		return s
	}
	return s + "_" + strconv.FormatUint(uint64(c.ID), 10)
}

// Apply narrows q to the rows after c, orders newest first and fetches one
// page. table qualifies the columns when q joins other tables; pass "" otherwise.
func Apply(q *gorm.DB, c *Cursor, table string, size int) *gorm.DB {
	col := func(name string) string {
		if table == "" {
			return name
		}
		return table + "." + name
	}

	if c != nil {
		if c.ID == 0 {
			q = q.Where(col("created_at")+" < ?", c.CreatedAt)
		} else {
			q = q.Where(
				"("+col("created_at")+" < ? OR ("+col("created_at")+" = ? AND "+col("id")+" < ?))",
				c.CreatedAt, c.CreatedAt, c.ID,
			)
		}
	}
	return q.Order(col("created_at") + " DESC").Order(col("id") + " DESC").Limit(size)
}

// Page is one slice of a paginated view. NextCursor is nil at the end of data.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

// NextCursor returns the cursor after the last row when the page is full.
func NextCursor(fetched, size int, lastCreatedAt time.Time, lastID uint) *string {
	if fetched < size || fetched == 0 {
		return nil
	}
	s := Encode(lastCreatedAt, lastID)
	return &s
}
