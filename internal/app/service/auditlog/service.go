package auditlog

import (
	"context"
	"encoding/json"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/tool"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is a write-only audit sink. Every state-changing operation in
// the payment core appends one entry; nothing in the core reads them.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Append asynchronously persists an audit entry. Failures are logged,
// never propagated; audit loss must not fail the business operation.
func (s *Service) Append(ctx context.Context, eventType, entityType, entityID string, payload any, userID *string) {
	go func() {
		entry := &models.AuditLog{
			ID:         tool.GenerateUUIDV7(),
			EventType:  eventType,
			EntityType: entityType,
			EntityID:   entityID,
			UserID:     userID,
		}
		if payload != nil {
			if b, err := json.Marshal(payload); err == nil {
				entry.Payload = datatypes.JSON(b)
			}
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save audit log: %v", err)
		}
	}()
}

// AppendTx writes an audit entry inside the caller's transaction, for
// events that must be recorded atomically with the state change.
func (s *Service) AppendTx(ctx context.Context, tx *gorm.DB, eventType, entityType, entityID string, payload any, userID *string) error {
	entry := &models.AuditLog{
		ID:         tool.GenerateUUIDV7(),
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
	}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			entry.Payload = datatypes.JSON(b)
		}
	}
	return tx.WithContext(ctx).Create(entry).Error
}
