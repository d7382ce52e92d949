package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	CognitoSub string    `json:"cognitoSub" gorm:"type:text;not null;uniqueIndex"`
	Email      string    `json:"email" gorm:"type:text;not null;uniqueIndex"`
	Name       *string   `json:"name" gorm:"type:text"`
	LastLogin  time.Time `json:"lastLogin" gorm:"default:CURRENT_TIMESTAMP"`
}

// InsertUser is the subset a sign-in hands to the store.
type InsertUser struct {
	CognitoSub string
	Email      string
	Name       *string
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
