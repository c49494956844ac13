package models

import "time"

// AssayResult is one lab measurement for a customer sample. FinalResult
// holds the measured fineness when positive; negative values are status
// sentinels fixed by the client contract: -1 rejected, -2 redo, -3 below
// the reportable threshold.
type AssayResult struct {
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
	Ready        bool      `gorm:"default:false" json:"ready"`
	Deleted      bool      `gorm:"default:false" json:"deleted"`
	Created      time.Time `json:"created"`
	Modified     time.Time `gorm:"index" json:"modified"`
	ReturnDate   time.Time `json:"returndate"`
}

func (AssayResult) TableName() string { return "assayresult" }

// Status sentinel values for FinalResult.
const (
	FinalResultRejected = -1
	FinalResultRedo     = -2
	FinalResultLow      = -3
)
