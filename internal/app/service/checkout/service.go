package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrDonationNotPending means a checkout session was requested for a
// donation that already left the pending state. Creating one would risk
// double charging; callers surface it as 4xx.
var ErrDonationNotPending = errors.New("donation is not pending")

var ErrDonationNotFound = errors.New("donation not found")

// Gateway is the slice of the payment provider the orchestrator needs.
type Gateway interface {
	CreateSession(ctx context.Context, params *thawani.CreateSessionParams) (*thawani.Session, error)
	GetSessionDetails(ctx context.Context, sessionID string) (*thawani.SessionDetails, error)
}

// Service turns a donation intent into a live gateway checkout session.
type Service struct {
	cfg         *config.Config
	gw          Gateway
	donationSvc *donation.Service
	log         *zap.SugaredLogger
}

func NewService(cfg *config.Config, gw Gateway, donationSvc *donation.Service, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, gw: gw, donationSvc: donationSvc, log: log}
}

type LineItem struct {
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	Amount     float64 `json:"amount"` // major units per unit
}

type CreatePaymentRequest struct {
	DonationID string `json:"donation_id"`

	// Products is optional; when empty a single line item is built from
	// the donation itself.
	Products []LineItem `json:"products"`

	// Explicit redirect URLs take precedence over return_origin.
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`

	// ReturnOrigin is the caller's front-end base URL; it must pass the
	// allow-list before use.
	ReturnOrigin string `json:"return_origin"`
}

type CreatePaymentResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreatePayment creates a gateway session for a pending donation and
// persists the session reference. On gateway failure the donation is
// left pending with no session id, so the caller may simply retry.
func (s *Service) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	d, err := s.donationSvc.GetByDonationID(ctx, req.DonationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to load donation: %w", err)
	}
	if !d.IsPending() {
		return nil, fmt.Errorf("%w: donation %s is %s", ErrDonationNotPending, d.DonationID, d.Status)
	}

	successURL, cancelURL, err := s.redirectURLs(req)
	if err != nil {
		return nil, err
	}

	products := make([]thawani.Product, 0, len(req.Products))
	for _, p := range req.Products {
		qty := p.Quantity
		if qty < 1 {
			qty = 1
		}
		products = append(products, thawani.Product{
			Name:       p.Name,
			Quantity:   qty,
			UnitAmount: thawani.ToMinorUnit(p.Amount),
		})
	}
	if len(products) == 0 {
		products = append(products, thawani.Product{
			Name:       donationItemName(d),
			Quantity:   1,
			UnitAmount: thawani.ToMinorUnit(d.Amount),
		})
	}

	session, err := s.gw.CreateSession(ctx, &thawani.CreateSessionParams{
		ClientReferenceID: d.DonationID,
		Products:          products,
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("checkout_session_create_failed",
			"donation_id", d.DonationID, "err", err)
		return nil, err
	}

	if err := s.donationSvc.AttachSession(ctx, d, session.SessionID, session.Raw); err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("checkout_session_created",
		"donation_id", d.DonationID, "session_id", session.SessionID)

	return &CreatePaymentResponse{SessionID: session.SessionID, CheckoutURL: session.PaymentURL}, nil
}

type ConfirmRequest struct {
	SessionID  string `json:"session_id"`
	DonationID string `json:"donation_id"`
}

type ConfirmResponse struct {
	DonationID string               `json:"donation_id"`
	Status     types.DonationStatus `json:"status"`
	PaidAmount *float64             `json:"paid_amount,omitempty"`
	PaidAt     *time.Time           `json:"paid_at,omitempty"`
}

// Confirm synchronously polls the gateway for a donation's session and
// applies the resulting transition. It is the client-side complement of
// the webhook: same transition logic, pull instead of push.
func (s *Service) Confirm(ctx context.Context, req *ConfirmRequest) (*ConfirmResponse, error) {
	var d *models.Donation
	var err error
	switch {
	case req.SessionID != "":
		d, err = s.donationSvc.GetBySessionID(ctx, req.SessionID)
	case req.DonationID != "":
		d, err = s.donationSvc.GetByDonationID(ctx, req.DonationID)
	default:
		return nil, fmt.Errorf("session_id or donation_id is required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to load donation: %w", err)
	}

	// Only poll while the outcome is still undecided.
	if d.Status == types.DonationStatusPending && d.HasSession() {
		details, err := s.gw.GetSessionDetails(ctx, *d.PaymentSessionID)
		if err != nil {
			return nil, err
		}
		incoming := types.NormalizeGatewayStatus(details.PaymentStatus)
		if _, err := s.donationSvc.ApplyGatewayResult(ctx, d.ID, incoming, details.TotalAmount, json.RawMessage(details.Raw)); err != nil {
			return nil, err
		}
		if d, err = s.donationSvc.GetByDonationID(ctx, d.DonationID); err != nil {
			return nil, fmt.Errorf("failed to reload donation: %w", err)
		}
	}

	return &ConfirmResponse{
		DonationID: d.DonationID,
		Status:     d.Status,
		PaidAmount: d.PaidAmount,
		PaidAt:     d.PaidAt,
	}, nil
}

func (s *Service) redirectURLs(req *CreatePaymentRequest) (string, string, error) {
	if req.SuccessURL != "" && req.CancelURL != "" {
		return req.SuccessURL, req.CancelURL, nil
	}

	origin := s.cfg.Payment.DefaultOrigin
	if req.ReturnOrigin != "" {
		validated, err := validateReturnOrigin(req.ReturnOrigin, s.cfg.Payment.AllowedOrigins, s.cfg.Env)
		if err != nil {
			return "", "", err
		}
		origin = validated
	}
	origin = strings.TrimRight(origin, "/")
	return origin + s.cfg.Payment.SuccessPath, origin + s.cfg.Payment.CancelPath, nil
}

func donationItemName(d *models.Donation) string {
	if d.Type == types.DonationTypeGift {
		return "Gift donation"
	}
	return "Donation"
}
