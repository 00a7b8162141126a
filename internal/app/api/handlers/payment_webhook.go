package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/webhook"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Webhook-Signature"

// @Summary      Payment Gateway Webhook
// @Description  Ingests payment status notifications pushed by the gateway. Deliveries are acknowledged even when processing fails; only an invalid signature or a payload with no session reference is rejected.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        provider path string true "Payment provider id" default(thawani)
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespOK
// @Failure      401  {object}  handlers.RespOK
// @Router       /api/v1/payments/webhook/{provider} [post]
func ApiPaymentWebhook(svc *webhook.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Param("provider")
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "failed to read body"))
			return
		}

		logctx.FromCtx(c, svc.Log()).Infow("webhook_received", "provider", provider, "bytes", len(body))

		res, err := svc.Process(c.Request.Context(), provider, body, c.GetHeader(signatureHeader), c.GetString("traceID"))
		if err != nil {
			switch {
			case errors.Is(err, webhook.ErrInvalidSignature):
				c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			case errors.Is(err, webhook.ErrUnresolvablePayload):
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, svc *webhook.Service) {
	r.POST("/webhook/:provider", ApiPaymentWebhook(svc))
}
