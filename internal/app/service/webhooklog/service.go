package webhooklog

import (
	"context"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/tool"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// SaveNow persists a webhook log entry before returning. Nil input is
// ignored.
func (s *Service) SaveNow(ctx context.Context, entry *models.PaymentWebhookLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.Save(entry).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to save webhook log: %v", err)
	}
}

// Save persists a webhook log entry in the background. The caller must
// not mutate the entry after handing it over.
func (s *Service) Save(ctx context.Context, entry *models.PaymentWebhookLog) {
	go s.SaveNow(ctx, entry)
}
