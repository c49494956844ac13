package models

import "time"

// Loss is a lookup row mapping a sample-weight band to its expected
// processing loss percentage.
type Loss struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Low      float64   `json:"low"`
	High     float64   `json:"high"`
	Pct      float64   `json:"pct"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func (Loss) TableName() string { return "loss" }
