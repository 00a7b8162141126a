package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of state-changing operations.
// The core only ever writes it.
type AuditLog struct {
	ID         string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	EventType  string         `gorm:"column:event_type;type:varchar(64);not null;index" json:"event_type"`
	EntityType string         `gorm:"column:entity_type;type:varchar(64);not null" json:"entity_type"`
	EntityID   string         `gorm:"column:entity_id;type:varchar(64);not null;index" json:"entity_id"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	UserID     *string        `gorm:"column:user_id;type:varchar(64)" json:"user_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
