package repository

import (
	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"gorm.io/gorm"
)

// OwnerScope returns a GORM scope that filters by the owning store.
// A nil owner matches nothing so a missing identity never leaks rows.
func OwnerScope(ownerID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ownerID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where("owner_id = ?", ownerID)
	}
}

// KeysetScope orders newest first on (created_at, id) and, when after is
// set, keeps only the rows strictly past it. The cursor id travels as text
// and is cast so the row comparison stays on uuid.
func KeysetScope(after *pagination.Cursor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if after != nil {
			db = db.Where("(created_at, id) < (?, ?::uuid)", after.CreatedAt, after.ID)
		}
		return db.Order("created_at DESC").Order("id DESC")
	}
}
