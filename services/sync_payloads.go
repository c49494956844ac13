package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ywy929/assay-dashboard-backend/models"
)

// SyncTime accepts the timestamp shapes the on-premise node emits:
// RFC 3339 with Z or an explicit offset, or a naive timestamp taken as
// UTC.
type SyncTime struct {
	time.Time
}

func (t *SyncTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return fmt.Errorf("unparseable timestamp %q", s)
	}
	t.Time = parsed
	return nil
}

// Sync payloads mirror their models with pointer fields: only fields
// present in the payload overwrite the local record.

type userSync struct {
	ID           uint      `json:"id"`
	PwHash       []byte    `json:"pwhash"`
	Salt         []byte    `json:"salt"`
	Role         *string   `json:"role"`
	Name         *string   `json:"name"`
	Phone        *string   `json:"phone"`
	PhoneTwo     *string   `json:"phonetwo"`
	Email        *string   `json:"email"`
	CompanyEmail *string   `json:"companyemail"`
	Fax          *string   `json:"fax"`
	AddressOne   *string   `json:"addressone"`
	AddressTwo   *string   `json:"addresstwo"`
	Area         *string   `json:"area"`
	MailPw       *string   `json:"mailpw"`
	Orientation  *string   `json:"orientation"`
	Billing      *bool     `json:"billing"`
	Coupon       *bool     `json:"coupon"`
	Created      *SyncTime `json:"created"`
	Modified     *SyncTime `json:"modified"`
}

func (in *userSync) toModel() models.User {
	var u models.User
	u.ID = in.ID
	in.applyTo(&u)
	return u
}

func (in *userSync) applyTo(u *models.User) {
	if in.PwHash != nil {
		u.PwHash = in.PwHash
	}
	if in.Salt != nil {
		u.Salt = in.Salt
	}
	assign(&u.Role, in.Role)
	assign(&u.Name, in.Name)
	assign(&u.Phone, in.Phone)
	assign(&u.PhoneTwo, in.PhoneTwo)
	assign(&u.Email, in.Email)
	assign(&u.CompanyEmail, in.CompanyEmail)
	assign(&u.Fax, in.Fax)
	assign(&u.AddressOne, in.AddressOne)
	assign(&u.AddressTwo, in.AddressTwo)
	assign(&u.Area, in.Area)
	assign(&u.MailPw, in.MailPw)
	assign(&u.Orientation, in.Orientation)
	assign(&u.Billing, in.Billing)
	assign(&u.Coupon, in.Coupon)
	assignTime(&u.Created, in.Created)
	assignTime(&u.Modified, in.Modified)
}

// SyncUser is the pull-direction user payload. The API model redacts
// pwhash, salt and mailpw; the on-premise node needs them, or a
// cloud-side password change never reaches on-prem logins.
type SyncUser struct {
	ID           uint      `json:"id"`
	PwHash       []byte    `json:"pwhash"`
	Salt         []byte    `json:"salt"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PhoneTwo     string    `json:"phonetwo"`
	Email        string    `json:"email"`
	CompanyEmail string    `json:"companyemail"`
	Fax          string    `json:"fax"`
	AddressOne   string    `json:"addressone"`
	AddressTwo   string    `json:"addresstwo"`
	Area         string    `json:"area"`
	MailPw       string    `json:"mailpw"`
	Orientation  string    `json:"orientation"`
	Billing      bool      `json:"billing"`
	Coupon       bool      `json:"coupon"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
}

func exportUser(u models.User) SyncUser {
	return SyncUser{
		ID:           u.ID,
		PwHash:       u.PwHash,
		Salt:         u.Salt,
		Role:         u.Role,
		Name:         u.Name,
		Phone:        u.Phone,
		PhoneTwo:     u.PhoneTwo,
		Email:        u.Email,
		CompanyEmail: u.CompanyEmail,
		Fax:          u.Fax,
		AddressOne:   u.AddressOne,
		AddressTwo:   u.AddressTwo,
		Area:         u.Area,
		MailPw:       u.MailPw,
		Orientation:  u.Orientation,
		Billing:      u.Billing,
		Coupon:       u.Coupon,
		Created:      u.Created,
		Modified:     u.Modified,
	}
}

type assayResultSync struct {
	ID           uint      `json:"id"`
	Customer     *uint     `json:"customer"`
	ItemCode     *string   `json:"itemcode"`
	FormCode     *int      `json:"formcode"`
	Collector    *string   `json:"collector"`
	InCharge     *string   `json:"incharge"`
	Color        *int16    `json:"color"`
	SampleWeight *float64  `json:"sampleweight"`
	SampleReturn *float64  `json:"samplereturn"`
	FWA          *int      `json:"fwa"`
	FWB          *int      `json:"fwb"`
	LWA          *int      `json:"lwa"`
	LWB          *int      `json:"lwb"`
	SilverPct    *int      `json:"silverpct"`
	ResultA      *float64  `json:"resulta"`
	ResultB      *float64  `json:"resultb"`
	PreResult    *float64  `json:"preresult"`
	Loss         *float64  `json:"loss"`
	FinalResult  *float64  `json:"finalresult"`
	Ready        *bool     `json:"ready"`
	Deleted      *bool     `json:"deleted"`
	Created      *SyncTime `json:"created"`
	Modified     *SyncTime `json:"modified"`
	ReturnDate   *SyncTime `json:"returndate"`
}

func (in *assayResultSync) toModel() models.AssayResult {
	var a models.AssayResult
	a.ID = in.ID
	in.applyTo(&a)
	return a
}

func (in *assayResultSync) applyTo(a *models.AssayResult) {
	assign(&a.Customer, in.Customer)
	assign(&a.ItemCode, in.ItemCode)
	assign(&a.FormCode, in.FormCode)
	assign(&a.Collector, in.Collector)
	assign(&a.InCharge, in.InCharge)
	assign(&a.Color, in.Color)
	assign(&a.SampleWeight, in.SampleWeight)
	assign(&a.SampleReturn, in.SampleReturn)
	assign(&a.FWA, in.FWA)
	assign(&a.FWB, in.FWB)
	assign(&a.LWA, in.LWA)
	assign(&a.LWB, in.LWB)
	assign(&a.SilverPct, in.SilverPct)
	assign(&a.ResultA, in.ResultA)
	assign(&a.ResultB, in.ResultB)
	assign(&a.PreResult, in.PreResult)
	assign(&a.Loss, in.Loss)
	assign(&a.FinalResult, in.FinalResult)
	assign(&a.Ready, in.Ready)
	assign(&a.Deleted, in.Deleted)
	assignTime(&a.Created, in.Created)
	assignTime(&a.Modified, in.Modified)
	assignTime(&a.ReturnDate, in.ReturnDate)
}

type spoilRecordSync struct {
	ID           uint      `json:"id"`
	Customer     *uint     `json:"customer"`
	ItemCode     *string   `json:"itemcode"`
	FormCode     *int      `json:"formcode"`
	Collector    *string   `json:"collector"`
	InCharge     *string   `json:"incharge"`
	Color        *int16    `json:"color"`
	SampleWeight *float64  `json:"sampleweight"`
	SampleReturn *float64  `json:"samplereturn"`
	FWA          *int      `json:"fwa"`
	FWB          *int      `json:"fwb"`
	LWA          *int      `json:"lwa"`
	LWB          *int      `json:"lwb"`
	SilverPct    *int      `json:"silverpct"`
	ResultA      *float64  `json:"resulta"`
	ResultB      *float64  `json:"resultb"`
	PreResult    *float64  `json:"preresult"`
	Loss         *float64  `json:"loss"`
	FinalResult  *float64  `json:"finalresult"`
	Created      *SyncTime `json:"created"`
	Modified     *SyncTime `json:"modified"`
	ReturnDate   *SyncTime `json:"returndate"`
}

func (in *spoilRecordSync) toModel() models.SpoilRecord {
	var sp models.SpoilRecord
	sp.ID = in.ID
	in.applyTo(&sp)
	return sp
}

func (in *spoilRecordSync) applyTo(sp *models.SpoilRecord) {
	assign(&sp.Customer, in.Customer)
	assign(&sp.ItemCode, in.ItemCode)
	assign(&sp.FormCode, in.FormCode)
	assign(&sp.Collector, in.Collector)
	assign(&sp.InCharge, in.InCharge)
	assign(&sp.Color, in.Color)
	assign(&sp.SampleWeight, in.SampleWeight)
	assign(&sp.SampleReturn, in.SampleReturn)
	assign(&sp.FWA, in.FWA)
	assign(&sp.FWB, in.FWB)
	assign(&sp.LWA, in.LWA)
	assign(&sp.LWB, in.LWB)
	assign(&sp.SilverPct, in.SilverPct)
	assign(&sp.ResultA, in.ResultA)
	assign(&sp.ResultB, in.ResultB)
	assign(&sp.PreResult, in.PreResult)
	assign(&sp.Loss, in.Loss)
	assign(&sp.FinalResult, in.FinalResult)
	assignTime(&sp.Created, in.Created)
	assignTime(&sp.Modified, in.Modified)
	assignTime(&sp.ReturnDate, in.ReturnDate)
}

type lossSync struct {
	ID       uint      `json:"id"`
	Low      *float64  `json:"low"`
	High     *float64  `json:"high"`
	Pct      *float64  `json:"pct"`
	Created  *SyncTime `json:"created"`
	Modified *SyncTime `json:"modified"`
}

func (in *lossSync) toModel() models.Loss {
	var l models.Loss
	l.ID = in.ID
	in.applyTo(&l)
	return l
}

func (in *lossSync) applyTo(l *models.Loss) {
	assign(&l.Low, in.Low)
	assign(&l.High, in.High)
	assign(&l.Pct, in.Pct)
	assignTime(&l.Created, in.Created)
	assignTime(&l.Modified, in.Modified)
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func assignTime(dst *time.Time, src *SyncTime) {
	if src != nil {
		*dst = src.Time
	}
}
