package webhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/webhooklog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/metrics"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/tool"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outcome classifies what a delivery did. It is also the label value on
// the webhook metric, so keep the set small and stable.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeNoop         Outcome = "noop"
	OutcomeUnmatched    Outcome = "unmatched"
	OutcomeRejected     Outcome = "rejected"
	OutcomeUnresolvable Outcome = "unresolvable"
	OutcomeErrored      Outcome = "errored"
)

type Result struct {
	Outcome    Outcome `json:"outcome"`
	DonationID string  `json:"donation_id,omitempty"`
}

// Service ingests gateway webhook deliveries. Every delivery is logged
// verbatim before any processing, and processing itself is a thin shell
// around the donation transition logic so push and pull stay identical.
type Service struct {
	cfg         *config.Config
	donationSvc *donation.Service
	whlog       *webhooklog.Service
	log         *zap.SugaredLogger
}

func NewService(cfg *config.Config, donationSvc *donation.Service, whlog *webhooklog.Service, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, donationSvc: donationSvc, whlog: whlog, log: log}
}

// Log exposes the base logger for handlers that enrich it per request.
func (s *Service) Log() *zap.SugaredLogger { return s.log }

// Process handles one raw delivery. The error is non-nil only for
// deliveries the gateway should not retry as-is: a bad signature or a
// payload with no session reference. Everything else, including
// processing failures, resolves to a Result so the handler can ack and
// let reconciliation catch up.
func (s *Service) Process(ctx context.Context, provider string, body []byte, signature, traceID string) (*Result, error) {
	// The raw payload is on disk before any processing touches it, and
	// the entry stays ours to mutate until the terminal async save.
	entry := &models.PaymentWebhookLog{
		ID:         tool.GenerateUUIDV7(),
		ProviderID: provider,
		TraceID:    traceID,
		Data:       datatypes.JSON(body),
		Status:     models.PaymentWebhookLogStatusReceived,
	}
	s.whlog.SaveNow(ctx, entry)

	if s.cfg.Thawani.WebhookSecret != "" {
		if !verifySignature(s.cfg.Thawani.WebhookSecret, body, signature) {
			metrics.WebhookEvents.WithLabelValues(string(OutcomeRejected)).Inc()
			logctx.FromCtx(ctx, s.log).Warnw("webhook_signature_rejected", "provider", provider)
			return nil, ErrInvalidSignature
		}
	}

	ev, err := Normalize(body)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(OutcomeUnresolvable)).Inc()
		s.finishLog(ctx, entry, models.PaymentWebhookLogStatusHandleFailed, map[string]any{"error": err.Error()})
		return nil, err
	}
	entry.SessionID = ev.SessionID

	d, err := s.donationSvc.GetBySessionID(ctx, ev.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Likely a delivery for a session created outside this
			// environment. Ack it; retries would never match either.
			metrics.WebhookEvents.WithLabelValues(string(OutcomeUnmatched)).Inc()
			logctx.FromCtx(ctx, s.log).Warnw("webhook_unmatched_session",
				"provider", provider, "session_id", ev.SessionID)
			s.finishLog(ctx, entry, models.PaymentWebhookLogStatusHandled, map[string]any{"outcome": OutcomeUnmatched})
			return &Result{Outcome: OutcomeUnmatched}, nil
		}
		metrics.WebhookEvents.WithLabelValues(string(OutcomeErrored)).Inc()
		s.finishLog(ctx, entry, models.PaymentWebhookLogStatusHandleFailed, map[string]any{"error": err.Error()})
		return &Result{Outcome: OutcomeErrored}, nil
	}

	tr, err := s.donationSvc.ApplyGatewayResult(ctx, d.ID, ev.Status, ev.AmountMinor, json.RawMessage(body))
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(OutcomeErrored)).Inc()
		logctx.FromCtx(ctx, s.log).Errorw("webhook_apply_failed",
			"provider", provider, "donation_id", d.DonationID, "err", err)
		s.finishLog(ctx, entry, models.PaymentWebhookLogStatusHandleFailed, map[string]any{"error": err.Error()})
		return &Result{Outcome: OutcomeErrored, DonationID: d.DonationID}, nil
	}

	outcome := OutcomeNoop
	result := map[string]any{"donation_id": d.DonationID}
	if tr != nil {
		outcome = OutcomeApplied
		result["from"] = tr.From
		result["to"] = tr.To
		logctx.FromCtx(ctx, s.log).Infow("webhook_transition_applied",
			"provider", provider, "donation_id", d.DonationID,
			"event_type", ev.EventType, "from", tr.From, "to", tr.To)
	}
	result["outcome"] = outcome

	metrics.WebhookEvents.WithLabelValues(string(outcome)).Inc()
	s.finishLog(ctx, entry, models.PaymentWebhookLogStatusHandled, result)
	return &Result{Outcome: outcome, DonationID: d.DonationID}, nil
}

func (s *Service) finishLog(ctx context.Context, entry *models.PaymentWebhookLog, status models.PaymentWebhookLogStatus, result map[string]any) {
	entry.Status = status
	if result != nil {
		b, err := json.Marshal(result)
		if err == nil {
			entry.Result = lo.ToPtr(datatypes.JSON(b))
		} else {
			logctx.FromCtx(ctx, s.log).Warnf("failed to marshal webhook result: %v", err)
		}
	}
	s.whlog.Save(ctx, entry)
}
