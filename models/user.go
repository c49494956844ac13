package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PwHash       []byte `json:"-"`
	Salt         []byte `json:"-"`
	Role         string `gorm:"size:45" json:"role"`
	Name         string `gorm:"size:45" json:"name"`
	Phone        string `gorm:"size:45;uniqueIndex" json:"phone"`
	PhoneTwo     string `gorm:"size:45" json:"phonetwo"`
	Email        string `gorm:"size:45" json:"email"`
	CompanyEmail string `gorm:"size:45" json:"companyemail"`
	Fax          string `gorm:"size:45" json:"fax"`
	AddressOne   string `gorm:"size:55" json:"addressone"`
	AddressTwo   string `gorm:"size:55" json:"addresstwo"`
	Area         string `gorm:"size:45" json:"area"`
	MailPw       string `gorm:"size:45" json:"-"`
	Orientation  string `gorm:"size:45" json:"orientation"`
	Billing      bool   `json:"billing"`
	Coupon       bool   `json:"coupon"`
	// Concurrent logins allowed for customer accounts; staff are unlimited.
	MaxDevices int       `gorm:"default:1" json:"max_devices"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

func (User) TableName() string { return "user" }
