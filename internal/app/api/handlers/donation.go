package handlers

import (
	"errors"
	"net/http"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/checkout"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateDonationWithPaymentRequest struct {
	donation.CreateDonationRequest

	SuccessURL   string `json:"success_url"`
	CancelURL    string `json:"cancel_url"`
	ReturnOrigin string `json:"return_origin"`
}

type CreateDonationWithPaymentResponse struct {
	DonationID  string `json:"donation_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`

	// Deduped is true when the idempotency key matched an existing
	// donation and no new record was created.
	Deduped bool `json:"deduped,omitempty"`
}

// @Summary      Create Donation With Payment
// @Description  Creates a donation and opens a gateway checkout session for it in one call. If session creation fails the donation is kept pending; retry via /payments/create.
// @Tags         Donation
// @Accept       json
// @Produce      json
// @Param        request body CreateDonationWithPaymentRequest true "Donation and redirect parameters"
// @Success      200  {object}  handlers.RespCreateDonationWithPayment
// @Failure      400  {object}  handlers.RespOK
// @Router       /api/v1/donations/with-payment [post]
func ApiCreateDonationWithPayment(donationSvc *donation.Service, checkoutSvc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateDonationWithPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		d, deduped, err := donationSvc.Create(c.Request.Context(), &req.CreateDonationRequest)
		if err != nil {
			if errors.Is(err, donation.ErrInvalidAmount) || errors.Is(err, donation.ErrGiftDetailsRequired) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		out := &CreateDonationWithPaymentResponse{DonationID: d.DonationID, Deduped: deduped}

		// A deduped donation may already hold a live session.
		if deduped && d.HasSession() {
			out.SessionID = *d.PaymentSessionID
			c.JSON(http.StatusOK, response.OKT(out))
			return
		}

		session, err := checkoutSvc.CreatePayment(c.Request.Context(), &checkout.CreatePaymentRequest{
			DonationID:   d.DonationID,
			SuccessURL:   req.SuccessURL,
			CancelURL:    req.CancelURL,
			ReturnOrigin: req.ReturnOrigin,
		})
		if err != nil {
			// The donation exists; surface its id so the client can retry
			// the payment leg alone.
			status, code := checkoutErrorStatus(err)
			c.JSON(status, response.ErrorT(code,
				map[string]any{"donation_id": d.DonationID, "error": err.Error()}))
			return
		}

		out.SessionID = session.SessionID
		out.CheckoutURL = session.CheckoutURL
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

// @Summary      Get Donation
// @Description  Returns a donation by its public reference.
// @Tags         Donation
// @Produce      json
// @Param        donation_id path string true "Donation reference"
// @Success      200  {object}  handlers.RespDonation
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/donations/{donation_id} [get]
func ApiGetDonation(donationSvc *donation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		donationID := c.Param("donation_id")
		d, err := donationSvc.GetByDonationID(c.Request.Context(), donationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "donation not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(toDonationItem(d)))
	}
}

func toDonationItem(d *models.Donation) *DonationItem {
	return &DonationItem{
		DonationID:       d.DonationID,
		Amount:           d.Amount,
		DonorName:        d.DonorName,
		Type:             d.Type,
		Status:           d.Status,
		ProgramID:        d.ProgramID,
		CampaignID:       d.CampaignID,
		Note:             d.Note,
		PaymentSessionID: d.PaymentSessionID,
		PaidAmount:       d.PaidAmount,
		PaidAt:           d.PaidAt,
		ExpiresAt:        d.ExpiresAt,
		CreatedAt:        d.CreatedAt,
	}
}

func RegisterDonationRoutes(r gin.IRouter, donationSvc *donation.Service, checkoutSvc *checkout.Service) {
	r.POST("/with-payment", ApiCreateDonationWithPayment(donationSvc, checkoutSvc))
	r.GET("/:donation_id", ApiGetDonation(donationSvc))
}
