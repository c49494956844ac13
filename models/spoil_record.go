package models

import "time"

// SpoilRecord mirrors AssayResult field-for-field but tracks spoiled
// samples; it has no ready flag and never drives notifications.
type SpoilRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Customer     uint      `gorm:"index" json:"customer"`
	ItemCode     string    `gorm:"size:45" json:"itemcode"`
	FormCode     int       `json:"formcode"`
	Collector    string    `gorm:"size:45" json:"collector"`
	InCharge     string    `gorm:"size:45" json:"incharge"`
	Color        int16     `json:"color"`
	SampleWeight float64   `json:"sampleweight"`
	SampleReturn float64   `json:"samplereturn"`
	FWA          int       `json:"fwa"`
	FWB          int       `json:"fwb"`
	LWA          int       `json:"lwa"`
	LWB          int       `json:"lwb"`
	SilverPct    int       `json:"silverpct"`
	ResultA      float64   `json:"resulta"`
	ResultB      float64   `json:"resultb"`
	PreResult    float64   `json:"preresult"`
	Loss         float64   `json:"loss"`
	FinalResult  float64   `json:"finalresult"`
	Created      time.Time `json:"created"`
	Modified     time.Time `gorm:"index" json:"modified"`
	ReturnDate   time.Time `json:"returndate"`
}

func (SpoilRecord) TableName() string { return "spoilrecord" }
