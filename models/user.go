package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"size:128" json:"name"`
	Email        string       `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string       `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Conversions  []Conversion `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}
