package models

import "time"

// Campaign is a time-boxed fundraising drive. When a donation references
// both a campaign and a program, the campaign balance takes precedence.
type Campaign struct {
	ID           uint    `gorm:"column:id;primaryKey" json:"id"`
	ProgramID    *uint   `gorm:"column:program_id;index" json:"program_id,omitempty"`
	Title        string  `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description  string  `gorm:"column:description;type:text" json:"description"`
	GoalAmount   float64 `gorm:"column:goal_amount;type:decimal(14,3);not null;default:0" json:"goal_amount"`
	RaisedAmount float64 `gorm:"column:raised_amount;type:decimal(14,3);not null;default:0" json:"raised_amount"`
	Status       string  `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`

	StartsAt *time.Time `gorm:"column:starts_at" json:"starts_at,omitempty"`
	EndsAt   *time.Time `gorm:"column:ends_at" json:"ends_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
