// Package sqlite implements the domain repositories on an embedded SQLite
// database through sqlx. The schema lives in the database package.
package sqlite

import (
	"database/sql"
	"errors"

	"github.com/sangkips/tillbook-api/pkg/pagination"
)

// noRows maps sql.ErrNoRows to the (nil, nil) "not found" convention.
func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// keyset appends the newest-first keyset clause for after to query.
func keyset(query string, args []interface{}, after *pagination.Cursor) (string, []interface{}) {
	if after != nil {
		query += ` AND (created_at, id) < (?, ?)`
		args = append(args, after.CreatedAt, after.ID)
	}
	return query + ` ORDER BY created_at DESC, id DESC`, args
}
