package types

type PaymentProvider string

const (
	PaymentProviderThawani PaymentProvider = "thawani"
)

// DonationStatus is the donation lifecycle state. pending is the only
// non-terminal state; a donation never leaves a terminal state.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusPaid      DonationStatus = "paid"
	DonationStatusFailed    DonationStatus = "failed"
	DonationStatusExpired   DonationStatus = "expired"
	DonationStatusCancelled DonationStatus = "cancelled"
)

func (s DonationStatus) Terminal() bool {
	return s != DonationStatusPending && s != ""
}

type DonationType string

const (
	DonationTypeQuick DonationType = "quick"
	DonationTypeGift  DonationType = "gift"
)

// GatewayPaymentStatus is a payment status as reported by the gateway,
// either pushed via webhook or pulled via session details.
type GatewayPaymentStatus string

const (
	GatewayStatusPaid      GatewayPaymentStatus = "paid"
	GatewayStatusUnpaid    GatewayPaymentStatus = "unpaid"
	GatewayStatusPending   GatewayPaymentStatus = "pending"
	GatewayStatusCancelled GatewayPaymentStatus = "cancelled"
	GatewayStatusFailed    GatewayPaymentStatus = "failed"
	GatewayStatusExpired   GatewayPaymentStatus = "expired"
	GatewayStatusUnknown   GatewayPaymentStatus = ""
)

// NormalizeGatewayStatus maps the loosely-spelled status strings the
// gateway emits onto the canonical set. Unrecognized values map to
// GatewayStatusUnknown so callers can treat them as a no-op.
func NormalizeGatewayStatus(raw string) GatewayPaymentStatus {
	switch raw {
	case "paid", "success", "successful":
		return GatewayStatusPaid
	case "unpaid":
		return GatewayStatusUnpaid
	case "pending":
		return GatewayStatusPending
	case "cancelled", "canceled":
		return GatewayStatusCancelled
	case "failed", "failure":
		return GatewayStatusFailed
	case "expired":
		return GatewayStatusExpired
	default:
		return GatewayStatusUnknown
	}
}
