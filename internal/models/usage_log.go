package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Represents one logged AI model interaction, kept for cost tracking and
// debugging. The prompt itself is never stored, only its hash.
type UsageLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	APIKeyID     *uuid.UUID `gorm:"type:uuid;index" json:"api_key_id,omitempty"`
	Category     string     `gorm:"index;not null" json:"category"`
	InputHash    string     `gorm:"size:64;not null" json:"input_hash"`
	InputTokens  int        `gorm:"not null" json:"input_tokens"`
	OutputTokens int        `gorm:"not null" json:"output_tokens"`
	Model        string     `gorm:"size:50" json:"model"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (u *UsageLog) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (UsageLog) TableName() string {
	return "usage_logs"
}

// HashInput returns the SHA-256 hex digest of the prompt text. Stored in
// place of the prompt so usage can be correlated without retaining user data.
func HashInput(inputText string) string {
	sum := sha256.Sum256([]byte(inputText))
	return hex.EncodeToString(sum[:])
}
