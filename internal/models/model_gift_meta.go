package models

import "time"

// GiftMeta carries the recipient/sender details of a gift donation.
// Created atomically with the donation; read-only afterward.
type GiftMeta struct {
	ID         uint `gorm:"column:id;primaryKey" json:"-"`
	DonationID uint `gorm:"column:donation_ref;not null;uniqueIndex" json:"-"`

	RecipientName  string `gorm:"column:recipient_name;type:varchar(255);not null" json:"recipient_name"`
	RecipientPhone string `gorm:"column:recipient_phone;type:varchar(32)" json:"recipient_phone"`
	Message        string `gorm:"column:message;type:text" json:"message"`
	SenderName     string `gorm:"column:sender_name;type:varchar(255)" json:"sender_name"`
	SenderPhone    string `gorm:"column:sender_phone;type:varchar(32)" json:"sender_phone"`
	HideIdentity   bool   `gorm:"column:hide_identity;not null;default:false" json:"hide_identity"`

	CreatedAt time.Time `json:"created_at"`
}

func (GiftMeta) TableName() string {
	return "donation_gift_meta"
}
