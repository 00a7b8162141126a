package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/metrics"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"go.uber.org/zap"
)

const (
	gatewayAttempts  = 3
	gatewayBaseDelay = time.Second
)

// Gateway is the slice of the payment provider the job polls.
type Gateway interface {
	GetSessionDetails(ctx context.Context, sessionID string) (*thawani.SessionDetails, error)
}

// Service is the safety net for missed webhooks: it re-checks pending
// donations against the gateway and applies whatever transition the
// session state warrants, through the same logic the webhook path uses.
type Service struct {
	cfg         *config.Config
	gw          Gateway
	donationSvc *donation.Service
	log         *zap.SugaredLogger
}

func NewService(cfg *config.Config, gw Gateway, donationSvc *donation.Service, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, gw: gw, donationSvc: donationSvc, log: log}
}

type Summary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
	Expired   int `json:"expired"`
}

// Decision records what one donation would get in dry-run mode.
type Decision struct {
	DonationID    string                     `json:"donation_id"`
	SessionID     string                     `json:"session_id"`
	GatewayStatus types.GatewayPaymentStatus `json:"gateway_status"`
	WouldApply    *types.DonationStatus      `json:"would_apply,omitempty"`
}

// Run executes one reconciliation pass. A failing donation is counted
// and skipped, never aborting the batch. In dry-run mode the summary
// counts what a real pass would do and the per-donation decisions are
// returned, but nothing is written, not even expiry.
func (s *Service) Run(ctx context.Context, dryRun bool) (*Summary, []Decision, error) {
	log := logctx.FromCtx(ctx, s.log)
	summary := &Summary{}
	var decisions []Decision

	since := time.Now().Add(-s.cfg.Reconcile.Lookback)
	pending, err := s.donationSvc.PendingWithSession(ctx, since)
	if err != nil {
		return nil, nil, err
	}

	for _, d := range pending {
		if ctx.Err() != nil {
			return summary, decisions, ctx.Err()
		}
		summary.Processed++

		details, err := s.sessionDetailsWithRetry(ctx, *d.PaymentSessionID)
		if err != nil {
			summary.Errored++
			metrics.ReconcileOutcomes.WithLabelValues("errored").Inc()
			log.Warnw("reconcile_gateway_check_failed",
				"donation_id", d.DonationID, "session_id", *d.PaymentSessionID, "err", err)
			continue
		}

		incoming := types.NormalizeGatewayStatus(details.PaymentStatus)

		if dryRun {
			dec := s.decide(d, incoming, details)
			decisions = append(decisions, dec)
			if dec.WouldApply != nil {
				summary.Updated++
			} else {
				summary.Skipped++
			}
			continue
		}

		tr, err := s.donationSvc.ApplyGatewayResult(ctx, d.ID, incoming, details.TotalAmount, json.RawMessage(details.Raw))
		if err != nil {
			summary.Errored++
			metrics.ReconcileOutcomes.WithLabelValues("errored").Inc()
			log.Errorw("reconcile_apply_failed", "donation_id", d.DonationID, "err", err)
			continue
		}
		if tr == nil {
			summary.Skipped++
			metrics.ReconcileOutcomes.WithLabelValues("skipped").Inc()
			continue
		}

		summary.Updated++
		metrics.ReconcileOutcomes.WithLabelValues("updated").Inc()
		log.Infow("reconcile_transition_applied",
			"donation_id", d.DonationID, "from", tr.From, "to", tr.To)
	}

	if !dryRun {
		expired, err := s.donationSvc.ExpireOverdue(ctx, time.Now())
		if err != nil {
			log.Errorw("reconcile_expire_failed", "err", err)
		}
		summary.Expired = int(expired)
	}

	log.Infow("reconcile_pass_done",
		"processed", summary.Processed, "updated", summary.Updated,
		"skipped", summary.Skipped, "errored", summary.Errored,
		"expired", summary.Expired, "dry_run", dryRun)
	return summary, decisions, nil
}

func (s *Service) decide(d *models.Donation, incoming types.GatewayPaymentStatus, details *thawani.SessionDetails) Decision {
	dec := Decision{
		DonationID:    d.DonationID,
		SessionID:     details.SessionID,
		GatewayStatus: incoming,
	}
	if tr := donation.ApplyGatewayStatus(d, incoming, details.TotalAmount); tr != nil {
		to := tr.To
		dec.WouldApply = &to
	}
	return dec
}

// sessionDetailsWithRetry retries transient gateway failures with a
// doubling delay, 1s then 2s.
func (s *Service) sessionDetailsWithRetry(ctx context.Context, sessionID string) (*thawani.SessionDetails, error) {
	var lastErr error
	delay := gatewayBaseDelay
	for attempt := 0; attempt < gatewayAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		details, err := s.gw.GetSessionDetails(ctx, sessionID)
		if err == nil {
			return details, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
