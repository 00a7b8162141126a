package models

import "time"

// Program is a long-running student-aid program donations can target.
// RaisedAmount is mutated only by the paid transition, via an atomic
// increment inside the same transaction as the status write.
type Program struct {
	ID           uint    `gorm:"column:id;primaryKey" json:"id"`
	Title        string  `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description  string  `gorm:"column:description;type:text" json:"description"`
	GoalAmount   float64 `gorm:"column:goal_amount;type:decimal(14,3);not null;default:0" json:"goal_amount"`
	RaisedAmount float64 `gorm:"column:raised_amount;type:decimal(14,3);not null;default:0" json:"raised_amount"`
	Status       string  `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Program) TableName() string {
	return "programs"
}
