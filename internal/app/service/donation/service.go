package donation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/auditlog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/metrics"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/tool"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAmount       = errors.New("donation amount must be positive")
	ErrGiftDetailsRequired = errors.New("gift donations require gift details")
)

type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	log   *zap.SugaredLogger
	audit *auditlog.Service
	idem  *IdempotencyStore
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, audit *auditlog.Service, idem *IdempotencyStore) *Service {
	return &Service{cfg: cfg, db: db, log: log, audit: audit, idem: idem}
}

type GiftDetails struct {
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	Message        string `json:"message"`
	SenderName     string `json:"sender_name"`
	SenderPhone    string `json:"sender_phone"`
	HideIdentity   bool   `json:"hide_identity"`
}

type CreateDonationRequest struct {
	Amount     float64            `json:"amount"`
	DonorName  string             `json:"donor_name"`
	Type       types.DonationType `json:"type"`
	UserID     *uint              `json:"user_id"`
	ProgramID  *uint              `json:"program_id"`
	CampaignID *uint              `json:"campaign_id"`
	Note       string             `json:"note"`
	Gift       *GiftDetails       `json:"gift"`

	// IdempotencyKey collapses accidental double-submits within the
	// configured window. Empty disables dedup.
	IdempotencyKey string `json:"idempotency_key"`
}

// Create builds a pending donation (and its gift metadata, atomically).
// The returned bool reports whether an existing donation was returned
// via idempotency-key dedup instead of creating a new one.
func (s *Service) Create(ctx context.Context, req *CreateDonationRequest) (*models.Donation, bool, error) {
	if req == nil || req.Amount <= 0 {
		return nil, false, ErrInvalidAmount
	}
	if req.Type == "" {
		req.Type = types.DonationTypeQuick
	}
	if req.Type == types.DonationTypeGift && req.Gift == nil {
		return nil, false, ErrGiftDetailsRequired
	}

	if req.IdempotencyKey != "" {
		if existingID, ok := s.idem.Lookup(ctx, req.IdempotencyKey); ok {
			existing, err := s.GetByDonationID(ctx, existingID)
			if err == nil {
				logctx.FromCtx(ctx, s.log).Infow("donation_create_deduped",
					"idempotency_key", req.IdempotencyKey, "donation_id", existingID)
				return existing, true, nil
			}
			// The key points at a donation we can no longer load;
			// fall through and create a fresh one.
			logctx.FromCtx(ctx, s.log).Warnw("idempotency key resolved to missing donation",
				"donation_id", existingID, "err", err)
		}
	}

	d := &models.Donation{
		DonationID: tool.GenerateDonationID(),
		Amount:     req.Amount,
		DonorName:  req.DonorName,
		Type:       req.Type,
		Status:     types.DonationStatusPending,
		UserID:     req.UserID,
		ProgramID:  req.ProgramID,
		CampaignID: req.CampaignID,
		Note:       req.Note,
		ExpiresAt:  time.Now().Add(time.Duration(s.cfg.Payment.ExpiryHours) * time.Hour),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return fmt.Errorf("failed to create donation: %w", err)
		}
		if req.Gift != nil {
			meta := &models.GiftMeta{
				DonationID:     d.ID,
				RecipientName:  req.Gift.RecipientName,
				RecipientPhone: req.Gift.RecipientPhone,
				Message:        req.Gift.Message,
				SenderName:     req.Gift.SenderName,
				SenderPhone:    req.Gift.SenderPhone,
				HideIdentity:   req.Gift.HideIdentity,
			}
			if err := tx.Create(meta).Error; err != nil {
				return fmt.Errorf("failed to create gift meta: %w", err)
			}
		}
		return s.audit.AppendTx(ctx, tx, "donation_created", "donation", d.DonationID, d, userIDString(d.UserID))
	})
	if err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != "" {
		s.idem.Remember(ctx, req.IdempotencyKey, d.DonationID)
	}
	return d, false, nil
}

func (s *Service) GetByDonationID(ctx context.Context, donationID string) (*models.Donation, error) {
	var d models.Donation
	if err := s.db.WithContext(ctx).Where("donation_id = ?", donationID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) GetBySessionID(ctx context.Context, sessionID string) (*models.Donation, error) {
	var d models.Donation
	if err := s.db.WithContext(ctx).Where("payment_session_id = ?", sessionID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// AttachSession stores the gateway session reference on a donation.
// This is a plain field update, not a state transition; a retried
// payment attempt may overwrite a stale session id.
func (s *Service) AttachSession(ctx context.Context, d *models.Donation, sessionID string, raw json.RawMessage) error {
	updates := map[string]any{"payment_session_id": sessionID}
	if raw != nil {
		updates["payload"] = datatypes.JSON(raw)
	}
	if err := s.db.WithContext(ctx).Model(&models.Donation{}).Where("id = ?", d.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to attach payment session: %w", err)
	}
	d.PaymentSessionID = lo.ToPtr(sessionID)
	s.audit.Append(ctx, "payment_session_created", "donation", d.DonationID,
		map[string]any{"session_id": sessionID}, userIDString(d.UserID))
	return nil
}

// ApplyGatewayResult executes a status transition inside a single
// transaction. The donation row is locked (postgres) and the transition
// re-evaluated on the locked row; the status write is additionally
// guarded by a conditional update so concurrent deliveries of the same
// event can never both apply the paid side effects.
//
// Returns the applied transition, or nil when the event was a no-op.
func (s *Service) ApplyGatewayResult(ctx context.Context, donationPK uint, incoming types.GatewayPaymentStatus, amountMinor *int64, raw json.RawMessage) (*Transition, error) {
	var applied *Transition

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			// sqlite (tests) serializes writes and has no FOR UPDATE
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var d models.Donation
		if err := q.First(&d, donationPK).Error; err != nil {
			return fmt.Errorf("failed to load donation: %w", err)
		}

		tr := ApplyGatewayStatus(&d, incoming, amountMinor)
		if tr == nil {
			return nil
		}

		now := time.Now()
		updates := map[string]any{"status": tr.To}
		if raw != nil {
			updates["payload"] = datatypes.JSON(raw)
		}
		if tr.To == types.DonationStatusPaid {
			updates["paid_at"] = now
			updates["paid_amount"] = tr.PaidAmount
			updates["amount"] = tr.PaidAmount
		}

		res := tx.Model(&models.Donation{}).
			Where("id = ? AND status = ?", d.ID, types.DonationStatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update donation status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent delivery; their transition
			// owns the side effects.
			return nil
		}

		if tr.IncrementRaised {
			if err := s.incrementRaised(ctx, tx, &d, tr.PaidAmount); err != nil {
				return err
			}
		}

		if err := s.audit.AppendTx(ctx, tx, "donation_"+string(tr.To), "donation", d.DonationID,
			map[string]any{"from": tr.From, "to": tr.To, "paid_amount": tr.PaidAmount}, userIDString(d.UserID)); err != nil {
			return fmt.Errorf("failed to append audit log: %w", err)
		}

		applied = tr
		return nil
	})
	if err != nil {
		return nil, err
	}

	if applied != nil && applied.To == types.DonationStatusPaid {
		metrics.DonationsPaid.Inc()
	}
	return applied, nil
}

func (s *Service) incrementRaised(ctx context.Context, tx *gorm.DB, d *models.Donation, amount float64) error {
	switch {
	case d.CampaignID != nil:
		if err := tx.Model(&models.Campaign{}).Where("id = ?", *d.CampaignID).
			UpdateColumn("raised_amount", gorm.Expr("raised_amount + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to increment campaign balance: %w", err)
		}
	case d.ProgramID != nil:
		if err := tx.Model(&models.Program{}).Where("id = ?", *d.ProgramID).
			UpdateColumn("raised_amount", gorm.Expr("raised_amount + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to increment program balance: %w", err)
		}
	}
	return nil
}

// ExpireOverdue marks pending donations past their validity deadline as
// expired. Returns the number of donations expired.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Donation{}).
		Where("status = ? AND expires_at < ?", types.DonationStatusPending, now).
		Update("status", types.DonationStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire overdue donations: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logctx.FromCtx(ctx, s.log).Infow("donations_expired", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// PendingWithSession lists donations the reconciliation job should
// re-check: still pending, holding a session reference, created within
// the lookback window.
func (s *Service) PendingWithSession(ctx context.Context, since time.Time) ([]*models.Donation, error) {
	var rows []*models.Donation
	if err := s.db.WithContext(ctx).
		Where("status = ? AND payment_session_id IS NOT NULL AND created_at >= ?", types.DonationStatusPending, since).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending donations: %w", err)
	}
	return rows, nil
}

func userIDString(id *uint) *string {
	if id == nil {
		return nil
	}
	return lo.ToPtr(fmt.Sprintf("%d", *id))
}
