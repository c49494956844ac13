package models

import "time"

// Notification is the durable in-app record shown to a customer. One is
// created when an assay becomes ready; a revert deletes it and writes a
// replacement, so at most one active record exists per (user, assay).
type Notification struct {
	ID      uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  uint      `gorm:"index" json:"user_id"`
	AssayID uint      `gorm:"index" json:"assay_id"`
	Title   string    `gorm:"size:100" json:"title"`
	Message string    `gorm:"type:text" json:"message"`
	Read    bool      `gorm:"default:false" json:"read"`
	Created time.Time `json:"created"`
}

func (Notification) TableName() string { return "notification" }
