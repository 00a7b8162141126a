package models

import (
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"
	"gorm.io/datatypes"
)

// Donation is a single pledge/payment attempt tied to a program or
// campaign. DonationID is the externally exposed reference; the numeric
// primary key never leaves the service.
type Donation struct {
	ID         uint                 `gorm:"column:id;primaryKey" json:"-"`
	DonationID string               `gorm:"column:donation_id;type:varchar(64);not null;uniqueIndex" json:"donation_id"`
	Amount     float64              `gorm:"column:amount;type:decimal(12,3);not null" json:"amount"`
	DonorName  string               `gorm:"column:donor_name;type:varchar(255)" json:"donor_name"`
	Type       types.DonationType   `gorm:"column:type;type:varchar(16);not null;default:'quick'" json:"type"`
	Status     types.DonationStatus `gorm:"column:status;type:varchar(16);not null;default:'pending';index" json:"status"`

	// Donations may be anonymous.
	UserID     *uint `gorm:"column:user_id;index" json:"user_id,omitempty"`
	ProgramID  *uint `gorm:"column:program_id;index" json:"program_id,omitempty"`
	CampaignID *uint `gorm:"column:campaign_id;index" json:"campaign_id,omitempty"`

	Note string `gorm:"column:note;type:text" json:"note,omitempty"`

	// Payload keeps the last raw gateway response for audit/debugging.
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`

	// PaymentSessionID references the gateway-hosted checkout session.
	// A new payment attempt after expiry/failure may overwrite it; there
	// is no session history table.
	PaymentSessionID *string `gorm:"column:payment_session_id;type:varchar(128);index" json:"payment_session_id,omitempty"`

	PaidAmount *float64   `gorm:"column:paid_amount;type:decimal(12,3)" json:"paid_amount,omitempty"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	PaidAt     *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) IsPending() bool {
	return d != nil && d.Status == types.DonationStatusPending
}

func (d *Donation) HasSession() bool {
	return d != nil && d.PaymentSessionID != nil && *d.PaymentSessionID != ""
}
