package models

import "time"

// PushToken identifies one client install. Token is the opaque routing
// token the app registers (always present, unique); DeviceToken is the
// native APNs/FCM token when the install has one.
type PushToken struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	Token       string    `gorm:"size:500;uniqueIndex" json:"token"`
	DeviceToken *string   `gorm:"size:500" json:"device_token"`
	DeviceType  string    `gorm:"size:20" json:"device_type"` // ios, android, web
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

func (PushToken) TableName() string { return "pushtoken" }
