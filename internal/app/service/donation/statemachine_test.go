package donation

import (
	"testing"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyGatewayStatus_AllCases(t *testing.T) {
	amt := func(v int64) *int64 { return &v }

	tests := []struct {
		name        string
		status      types.DonationStatus
		incoming    types.GatewayPaymentStatus
		amountMinor *int64
		wantNil     bool
		wantTo      types.DonationStatus
		wantPaid    float64
		wantRaised  bool
	}{
		{name: "pending to paid", status: types.DonationStatusPending, incoming: types.GatewayStatusPaid, amountMinor: amt(10500), wantTo: types.DonationStatusPaid, wantPaid: 10.5, wantRaised: true},
		{name: "paid without amount keeps stored amount", status: types.DonationStatusPending, incoming: types.GatewayStatusPaid, wantTo: types.DonationStatusPaid, wantPaid: 25, wantRaised: true},
		{name: "paid with zero amount keeps stored amount", status: types.DonationStatusPending, incoming: types.GatewayStatusPaid, amountMinor: amt(0), wantTo: types.DonationStatusPaid, wantPaid: 25, wantRaised: true},
		{name: "pending to cancelled", status: types.DonationStatusPending, incoming: types.GatewayStatusCancelled, wantTo: types.DonationStatusCancelled},
		{name: "pending to failed", status: types.DonationStatusPending, incoming: types.GatewayStatusFailed, wantTo: types.DonationStatusFailed},
		{name: "pending to expired", status: types.DonationStatusPending, incoming: types.GatewayStatusExpired, wantTo: types.DonationStatusExpired},
		{name: "unpaid is a no-op", status: types.DonationStatusPending, incoming: types.GatewayStatusUnpaid, wantNil: true},
		{name: "gateway pending is a no-op", status: types.DonationStatusPending, incoming: types.GatewayStatusPending, wantNil: true},
		{name: "unknown is a no-op", status: types.DonationStatusPending, incoming: types.GatewayStatusUnknown, wantNil: true},
		{name: "paid is sticky against cancel", status: types.DonationStatusPaid, incoming: types.GatewayStatusCancelled, wantNil: true},
		{name: "paid is sticky against paid replay", status: types.DonationStatusPaid, incoming: types.GatewayStatusPaid, wantNil: true},
		{name: "cancelled is terminal", status: types.DonationStatusCancelled, incoming: types.GatewayStatusPaid, wantNil: true},
		{name: "failed is terminal", status: types.DonationStatusFailed, incoming: types.GatewayStatusPaid, wantNil: true},
		{name: "expired is terminal", status: types.DonationStatusExpired, incoming: types.GatewayStatusPaid, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &models.Donation{DonationID: "dn_test", Amount: 25, Status: tt.status}
			tr := ApplyGatewayStatus(d, tt.incoming, tt.amountMinor)
			if tt.wantNil {
				assert.Nil(t, tr)
				return
			}
			require.NotNil(t, tr)
			assert.Equal(t, tt.status, tr.From)
			assert.Equal(t, tt.wantTo, tr.To)
			assert.Equal(t, tt.wantRaised, tr.IncrementRaised)
			if tr.To == types.DonationStatusPaid {
				assert.InDelta(t, tt.wantPaid, tr.PaidAmount, 1e-9)
			}
		})
	}
}

func TestApplyGatewayStatus_NilDonation(t *testing.T) {
	assert.Nil(t, ApplyGatewayStatus(nil, types.GatewayStatusPaid, nil))
}
