package donation

import (
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"
)

// Transition is the outcome of applying a gateway-reported status to a
// donation: the target state plus the side effects the caller must
// execute transactionally. A nil Transition means no-op.
type Transition struct {
	From types.DonationStatus
	To   types.DonationStatus

	// PaidAmount is the settled amount in major units; meaningful only
	// when To is paid.
	PaidAmount float64

	// IncrementRaised signals the campaign/program balance increment.
	// It is true exactly once per donation lifetime: on entry into paid.
	IncrementRaised bool
}

// ApplyGatewayStatus is the single authority on donation status
// transitions. Both the webhook ingestor and the reconciliation job go
// through it, so the push and pull paths can never drift.
//
// Rules:
//   - paid is reachable only from pending, and is sticky: a late
//     cancellation/failure event never downgrades a paid donation.
//   - cancelled/failed/expired map from pending to the corresponding
//     terminal state.
//   - unpaid/pending/unknown statuses, and any event against a donation
//     already in a terminal state, are no-ops.
//
// amountMinor, when present, is the gateway-reported amount in minor
// units; otherwise the donation's stored amount is kept.
func ApplyGatewayStatus(d *models.Donation, incoming types.GatewayPaymentStatus, amountMinor *int64) *Transition {
	if d == nil || d.Status.Terminal() {
		return nil
	}

	switch incoming {
	case types.GatewayStatusPaid:
		paidAmount := d.Amount
		if amountMinor != nil && *amountMinor > 0 {
			paidAmount = thawani.ToMajorUnit(*amountMinor)
		}
		return &Transition{
			From:            d.Status,
			To:              types.DonationStatusPaid,
			PaidAmount:      paidAmount,
			IncrementRaised: true,
		}
	case types.GatewayStatusCancelled:
		return &Transition{From: d.Status, To: types.DonationStatusCancelled}
	case types.GatewayStatusFailed:
		return &Transition{From: d.Status, To: types.DonationStatusFailed}
	case types.GatewayStatusExpired:
		return &Transition{From: d.Status, To: types.DonationStatusExpired}
	default:
		// unpaid / pending / unknown: nothing to decide yet
		return nil
	}
}
