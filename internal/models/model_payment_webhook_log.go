package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentWebhookLogStatus string

const (
	PaymentWebhookLogStatusReceived     PaymentWebhookLogStatus = "received"
	PaymentWebhookLogStatusHandled      PaymentWebhookLogStatus = "handled"
	PaymentWebhookLogStatusHandleFailed PaymentWebhookLogStatus = "handle_failed"
)

// PaymentWebhookLog stores every inbound gateway notification verbatim,
// before processing, so payloads can be replayed forensically.
type PaymentWebhookLog struct {
	ID         string                  `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	ProviderID string                  `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	SessionID  string                  `gorm:"column:session_id;type:varchar(128);index" json:"session_id"`
	TraceID    string                  `gorm:"column:trace_id;type:varchar(64)" json:"trace_id"`
	Data       datatypes.JSON          `gorm:"column:data;type:jsonb" json:"data"`
	Result     *datatypes.JSON         `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	Status     PaymentWebhookLogStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

func (PaymentWebhookLog) TableName() string {
	return "payment_webhook_logs"
}
