package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TierFree = "free"
	TierPro  = "pro"
)

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string    `gorm:"not null" json:"-"`
	Name             string    `json:"name"`
	SubscriptionTier string    `gorm:"default:'free'" json:"subscription_tier"`
	CreatedAt        time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	return nil
}

func (User) TableName() string {
	return "users"
}
