package models

import "time"

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Token     string    `gorm:"size:500;uniqueIndex" json:"token"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	Created   time.Time `json:"created"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

func (RefreshToken) TableName() string { return "refreshtoken" }
