package models

import (
	"time"
)

// CacheEntry represents a counter or cached value stored in the database,
// used as the backing store for rate limiting.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
