package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessage struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	IsBot     bool      `json:"isBot" gorm:"not null;default:false"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;default:CURRENT_TIMESTAMP"`
	SessionID string    `json:"sessionId" gorm:"type:text;not null;index"`
	UserID    *string   `json:"userId,omitempty" gorm:"type:varchar(36);index"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}

// ChatSessionSummary describes one conversation for the history panel.
type ChatSessionSummary struct {
	SessionID    string    `json:"sessionId"`
	LastMessage  string    `json:"lastMessage"`
	LastIsBot    bool      `json:"lastIsBot"`
	MessageCount int       `json:"messageCount"`
	LastActivity time.Time `json:"lastActivity"`
}
