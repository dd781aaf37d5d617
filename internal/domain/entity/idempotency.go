package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey stores processed requests to prevent duplicates
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" db:"id"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_user_key;size:255;not null" db:"key"` // The idempotency key from client
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_user_key" db:"user_id"`
	Endpoint     string    `gorm:"size:255;not null" db:"endpoint"` // e.g. "POST /api/v1/receipts"
	ResponseCode int       `gorm:"not null;default:0" db:"response_code"` // 0 while pending
	ResponseBody string    `gorm:"type:text" db:"response_body"`
	CreatedAt    int64     `gorm:"autoCreateTime:milli" db:"created_at"`
	ExpiresAt    int64     `gorm:"not null;index" db:"expires_at"` // epoch ms
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// Pending reports whether the request holding the key is still running.
func (i *IdempotencyKey) Pending() bool {
	return i.ResponseCode == 0
}

// IsExpired reports whether the key is past its expiry at now.
func (i *IdempotencyKey) IsExpired(now time.Time) bool {
	return now.UnixMilli() > i.ExpiresAt
}

// Prepare assigns the id and creation time a new row needs.
func (i *IdempotencyKey) Prepare(now time.Time) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt == 0 {
		i.CreatedAt = now.UnixMilli()
	}
}

// BeforeCreate generates a UUID before storing the key
func (i *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	i.Prepare(time.Now())
	return nil
}
