package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/enum"
	"gorm.io/gorm"
)

// StoreConfig holds the per-store settings used when rendering receipts.
type StoreConfig struct {
	CurrencySymbol string `gorm:"size:8;not null;default:'₹'" json:"currencySymbol" db:"currency_symbol"`
	MobilePrefix   string `gorm:"size:8;not null;default:'+91'" json:"mobilePrefix" db:"mobile_prefix"`
	ReceiptNote    string `gorm:"size:500" json:"receiptNote" db:"receipt_note"`
}

// DefaultStoreConfig is what a new store starts with.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		CurrencySymbol: enum.DefaultCurrencySymbol,
		MobilePrefix:   "+91",
	}
}

// WithDefaults fills blank fields from DefaultStoreConfig.
func (c StoreConfig) WithDefaults() StoreConfig {
	d := DefaultStoreConfig()
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = d.CurrencySymbol
	}
	if c.MobilePrefix == "" {
		c.MobilePrefix = d.MobilePrefix
	}
	return c
}

// User is a store account. Items and receipts are owned by it.
type User struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key" json:"id" db:"id"`
	Email       string            `gorm:"size:255;unique;not null" json:"email" db:"email"`
	Password    string            `gorm:"size:255" json:"-" db:"password"`
	Provider    enum.AuthProvider `gorm:"not null;default:0" json:"provider" db:"provider"`
	ProviderID  *string           `gorm:"size:255" json:"-" db:"provider_id"`
	StoreName   string            `gorm:"size:255;not null" json:"storeName" db:"store_name"`
	StoreConfig `gorm:"embedded" json:"config"`
	CreatedAt   int64 `gorm:"autoCreateTime:milli" json:"createdAt" db:"created_at"`
	UpdatedAt   int64 `gorm:"autoUpdateTime:milli" json:"updatedAt" db:"updated_at"`
}

// Prepare assigns the id and timestamps a new row needs.
func (u *User) Prepare(now time.Time) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = now.UnixMilli()
	}
	u.UpdatedAt = now.UnixMilli()
	u.StoreConfig = u.StoreConfig.WithDefaults()
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Prepare(time.Now())
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}
