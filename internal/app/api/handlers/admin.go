package handlers

import (
	"net/http"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/reconcile"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/statistics"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/response"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type ScanDonationsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanDonationsResponse struct {
	Items []*DonationItem `json:"items"`
	Total int64           `json:"total"`
}

// @Summary      Scan Donations (Admin)
// @Description  Retrieves a paginated and filterable list of donations.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ScanDonationsRequest true "Scan request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespScanDonations
// @Failure      400  {object}  handlers.RespOK
// @Router       /api/v1/admin/donations/scan [post]
func ApiScanDonations(svc *donation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScanDonationsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &donation.ScanDonationsRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		res, err := svc.ScanDonations(c.Request.Context(), scanReq)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.Donation, _ int) *DonationItem { return toDonationItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ScanDonationsResponse{Items: items, Total: res.Total}))
	}
}

type RunReconcileResponse struct {
	Summary   *reconcile.Summary   `json:"summary"`
	Decisions []reconcile.Decision `json:"decisions,omitempty"`
}

// @Summary      Run Reconciliation (Admin)
// @Description  Runs one reconciliation pass over pending donations. With dry_run=true decisions are returned without writing anything.
// @Tags         Admin
// @Produce      json
// @Param        dry_run query bool false "Report decisions without applying them"
// @Success      200  {object}  handlers.RespRunReconcile
// @Router       /api/v1/admin/reconcile/run [post]
func ApiRunReconcile(svc *reconcile.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		dryRun := c.Query("dry_run") == "true"
		summary, decisions, err := svc.Run(c.Request.Context(), dryRun)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&RunReconcileResponse{Summary: summary, Decisions: decisions}))
	}
}

// @Summary      Get Donation Statistics (Admin)
// @Description  Retrieves daily donation statistics for the requested data items.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.DonationStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespDonationStatistic
// @Router       /api/v1/admin/donations/statistics [post]
func ApiGetDonationStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.DonationStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetDonationStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, donationSvc *donation.Service, reconcileSvc *reconcile.Service, stats *statistics.Service) {
	r.POST("/donations/scan", ApiScanDonations(donationSvc))
	r.POST("/donations/statistics", ApiGetDonationStatistic(stats))
	r.POST("/reconcile/run", ApiRunReconcile(reconcileSvc))
}
