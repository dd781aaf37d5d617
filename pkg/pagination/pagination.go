package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const (
	// DefaultLimit is the page size used when the caller sends none.
	DefaultLimit = 10
	// MaxLimit caps a single page.
	MaxLimit = 100
)

// =============================================================================
// Cursor-Based Pagination (Keyset Pagination)
// =============================================================================

// Cursor is the sort key of the last row of a page. Rows are ordered by
// (CreatedAt DESC, ID DESC), so the pair is unique even when timestamps collide.
type Cursor struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"` // epoch milliseconds
}

// CursorParams represents input parameters for cursor-based pagination
type CursorParams struct {
	Cursor string `form:"cursor" json:"cursor"` // Base64 encoded cursor
	Limit  int    `form:"limit" json:"limit"`
}

// CursorPagination represents cursor-based pagination response metadata
type CursorPagination struct {
	NextCursor *string `json:"nextCursor,omitempty"`
	HasNext    bool    `json:"hasNext"`
	Limit      int     `json:"limit"`
}

// CursorPaginatedResult represents a cursor-paginated result with items
type CursorPaginatedResult[T any] struct {
	Items      []T               `json:"items"`
	Pagination *CursorPagination `json:"pagination"`
}

// DefaultCursorParams returns default cursor pagination values
func DefaultCursorParams() *CursorParams {
	return &CursorParams{Limit: DefaultLimit}
}

// Validate ensures cursor pagination parameters are within valid ranges
func (c *CursorParams) Validate() {
	if c.Limit < 1 {
		c.Limit = DefaultLimit
	}
	if c.Limit > MaxLimit {
		c.Limit = MaxLimit
	}
}

// DecodeCursor decodes the base64 cursor string. An empty string means the
// first page and yields nil.
func (c *CursorParams) DecodeCursor() (*Cursor, error) {
	return DecodeCursor(c.Cursor)
}

// DecodeCursor decodes a base64 cursor string into a Cursor struct
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(decoded, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor data: %w", err)
	}
	if cursor.ID == "" {
		return nil, fmt.Errorf("invalid cursor data: missing id")
	}

	return &cursor, nil
}

// EncodeCursor creates a base64 encoded cursor from a sort key.
func EncodeCursor(c Cursor) string {
	data, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(data)
}

// NewCursorPagination builds the response metadata. items should hold up to
// limit+1 rows so that the extra row signals another page.
func NewCursorPagination[T any](items []T, limit int, keyOf func(T) Cursor) (*CursorPagination, []T) {
	hasMore := len(items) > limit

	// Trim to the requested limit if we fetched extra
	if hasMore {
		items = items[:limit]
	}

	pagination := &CursorPagination{
		Limit:   limit,
		HasNext: hasMore,
	}

	if hasMore && len(items) > 0 {
		next := EncodeCursor(keyOf(items[len(items)-1]))
		pagination.NextCursor = &next
	}

	return pagination, items
}

// NewCursorPaginatedResult creates a new cursor-paginated result
func NewCursorPaginatedResult[T any](items []T, pagination *CursorPagination) *CursorPaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &CursorPaginatedResult[T]{
		Items:      items,
		Pagination: pagination,
	}
}
