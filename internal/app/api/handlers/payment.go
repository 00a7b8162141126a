package handlers

import (
	"errors"
	"net/http"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/checkout"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// @Summary      Create Payment Session
// @Description  Creates a gateway-hosted checkout session for a pending donation and returns the redirect URL.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body checkout.CreatePaymentRequest true "Payment session request"
// @Success      200  {object}  handlers.RespCreatePayment
// @Failure      400  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/payments/create [post]
func ApiCreatePayment(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.CreatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.DonationID == "" {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing donation_id"))
			return
		}

		res, err := svc.CreatePayment(c.Request.Context(), &req)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Confirm Payment
// @Description  Polls the gateway for the session outcome and returns the donation's settled status.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body checkout.ConfirmRequest true "Confirm request, session_id or donation_id"
// @Success      200  {object}  handlers.RespConfirmPayment
// @Failure      400  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/payments/confirm [post]
func ApiConfirmPayment(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := svc.Confirm(c.Request.Context(), &req)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// checkoutErrorStatus maps a checkout error to its HTTP status and
// envelope code: caller-state problems are 4xx, gateway trouble is 502.
func checkoutErrorStatus(err error) (int, response.APIResponseCode) {
	var gwErr *thawani.GatewayError
	switch {
	case errors.Is(err, checkout.ErrDonationNotFound):
		return http.StatusNotFound, response.APIResponseCodeNotFound
	case errors.Is(err, checkout.ErrDonationNotPending),
		errors.Is(err, checkout.ErrUntrustedOrigin):
		return http.StatusBadRequest, response.APIResponseCodeBadRequest
	case errors.As(err, &gwErr):
		return http.StatusBadGateway, response.APIResponseCodeError
	default:
		return http.StatusInternalServerError, response.APIResponseCodeError
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	status, code := checkoutErrorStatus(err)
	c.JSON(status, response.ErrorT[any](code, err.Error()))
}

func RegisterPaymentRoutes(r gin.IRouter, svc *checkout.Service) {
	r.POST("/create", ApiCreatePayment(svc))
	r.POST("/confirm", ApiConfirmPayment(svc))
}
