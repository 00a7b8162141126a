package handlers

import (
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/checkout"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/statistics"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/response"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// DonationItem is the public view of a donation.
type DonationItem struct {
	DonationID       string               `json:"donation_id"`
	Amount           float64              `json:"amount"`
	DonorName        string               `json:"donor_name"`
	Type             types.DonationType   `json:"type"`
	Status           types.DonationStatus `json:"status"`
	ProgramID        *uint                `json:"program_id,omitempty"`
	CampaignID       *uint                `json:"campaign_id,omitempty"`
	Note             string               `json:"note,omitempty"`
	PaymentSessionID *string              `json:"payment_session_id,omitempty"`
	PaidAmount       *float64             `json:"paid_amount,omitempty"`
	PaidAt           *time.Time           `json:"paid_at,omitempty"`
	ExpiresAt        time.Time            `json:"expires_at"`
	CreatedAt        time.Time            `json:"created_at"`
}

// RespCreatePayment wraps CreatePaymentResponse in the standard envelope.
type RespCreatePayment struct {
	Code    response.APIResponseCode       `json:"code"`
	Message string                         `json:"message"`
	Data    checkout.CreatePaymentResponse `json:"data"`
}

// RespConfirmPayment wraps ConfirmResponse in the standard envelope.
type RespConfirmPayment struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    checkout.ConfirmResponse `json:"data"`
}

// RespCreateDonationWithPayment wraps CreateDonationWithPaymentResponse in the standard envelope.
type RespCreateDonationWithPayment struct {
	Code    response.APIResponseCode          `json:"code"`
	Message string                            `json:"message"`
	Data    CreateDonationWithPaymentResponse `json:"data"`
}

// RespDonation wraps DonationItem in the standard envelope.
type RespDonation struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    DonationItem             `json:"data"`
}

// RespScanDonations wraps ScanDonationsResponse in the standard envelope.
type RespScanDonations struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ScanDonationsResponse    `json:"data"`
}

// RespRunReconcile wraps RunReconcileResponse in the standard envelope.
type RespRunReconcile struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    RunReconcileResponse     `json:"data"`
}

// RespDonationStatistic wraps DonationStatisticResponse in the standard envelope.
type RespDonationStatistic struct {
	Code    response.APIResponseCode             `json:"code"`
	Message string                               `json:"message"`
	Data    statistics.DonationStatisticResponse `json:"data"`
}
