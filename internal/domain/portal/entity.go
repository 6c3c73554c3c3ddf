package portal

import "time"

// Owner is one client identity; an owner maps to zero or more reports.
type Owner struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name      string    `json:"name" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
}

// MagicLinkToken is a single-use, time-limited login credential. Only the
// token hash is stored; the raw token exists in the emailed link alone.
type MagicLinkToken struct {
	ID        uint       `gorm:"primaryKey"`
	TokenHash string     `gorm:"uniqueIndex;size:64;not null"`
	OwnerID   string     `gorm:"index;size:64;not null"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time `gorm:"index"`
	CreatedAt time.Time
}
