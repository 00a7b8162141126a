package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/auditlog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/checkout"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/webhook"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/webhooklog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixedGateway struct {
	session *thawani.Session
	details *thawani.SessionDetails
}

func (g *fixedGateway) CreateSession(context.Context, *thawani.CreateSessionParams) (*thawani.Session, error) {
	return g.session, nil
}

func (g *fixedGateway) GetSessionDetails(context.Context, string) (*thawani.SessionDetails, error) {
	return g.details, nil
}

type testEnv struct {
	router      *gin.Engine
	db          *gorm.DB
	donationSvc *donation.Service
}

func setupRouter(t *testing.T, gw *fixedGateway) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Program{}, &models.Campaign{}, &models.Donation{},
		&models.GiftMeta{}, &models.AuditLog{}, &models.PaymentWebhookLog{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env: config.EnvDev,
		Payment: config.PaymentConfig{
			DefaultOrigin:     "https://donate.example.org",
			SuccessPath:       "/payments/success",
			CancelPath:        "/payments/cancel",
			ExpiryHours:       24,
			IdempotencyWindow: 5 * time.Minute,
		},
	}
	log := zap.NewNop().Sugar()
	audit := auditlog.New(db, log)
	idem := donation.NewIdempotencyStore(cfg, rdb, log)
	donationSvc := donation.NewService(cfg, db, log, audit, idem)
	checkoutSvc := checkout.NewService(cfg, gw, donationSvc, log)
	whlog := webhooklog.New(db, log)
	webhookSvc := webhook.NewService(cfg, donationSvc, whlog, log)

	r := gin.New()
	api := r.Group("/api/v1")
	payments := api.Group("/payments")
	RegisterPaymentRoutes(payments, checkoutSvc)
	RegisterPaymentWebhookRoutes(payments, webhookSvc)
	RegisterDonationRoutes(api.Group("/donations"), donationSvc, checkoutSvc)

	return &testEnv{router: r, db: db, donationSvc: donationSvc}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDonationWithPaymentFlow(t *testing.T) {
	gw := &fixedGateway{
		session: &thawani.Session{SessionID: "sess_flow", PaymentURL: "https://checkout.example/pay/sess_flow"},
		details: &thawani.SessionDetails{SessionID: "sess_flow", PaymentStatus: "paid"},
	}
	env := setupRouter(t, gw)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/donations/with-payment",
		map[string]any{"amount": 10, "donor_name": "Ali"})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		Code int `json:"code"`
		Data struct {
			DonationID  string `json:"donation_id"`
			SessionID   string `json:"session_id"`
			CheckoutURL string `json:"checkout_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Zero(t, created.Code)
	assert.NotEmpty(t, created.Data.DonationID)
	assert.Equal(t, "sess_flow", created.Data.SessionID)
	assert.NotEmpty(t, created.Data.CheckoutURL)

	// Confirm settles the donation through the same transition logic.
	w = doJSON(t, env.router, http.MethodPost, "/api/v1/payments/confirm",
		map[string]any{"session_id": "sess_flow"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/v1/donations/"+created.Data.DonationID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched struct {
		Data DonationItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, types.DonationStatusPaid, fetched.Data.Status)
}

func TestWebhookRoute_PaidAndDuplicate(t *testing.T) {
	gw := &fixedGateway{session: &thawani.Session{SessionID: "sess_hook", PaymentURL: "u"}}
	env := setupRouter(t, gw)
	ctx := context.Background()

	campaign := &models.Campaign{Title: "Drive"}
	require.NoError(t, env.db.Create(campaign).Error)

	d, _, err := env.donationSvc.Create(ctx, &donation.CreateDonationRequest{Amount: 30, CampaignID: &campaign.ID})
	require.NoError(t, err)
	require.NoError(t, env.donationSvc.AttachSession(ctx, d, "sess_hook", nil))

	payload := map[string]any{
		"event_type": "checkout.session.paid",
		"data":       map[string]any{"session_id": "sess_hook", "payment_status": "paid", "total_amount": 30000},
	}

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/payments/webhook/thawani", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/v1/payments/webhook/thawani", payload)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := env.donationSvc.GetByDonationID(ctx, d.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusPaid, got.Status)

	var c models.Campaign
	require.NoError(t, env.db.First(&c, campaign.ID).Error)
	assert.InDelta(t, 30.0, c.RaisedAmount, 1e-9)
}

func TestWebhookRoute_UnresolvableIs400(t *testing.T) {
	env := setupRouter(t, &fixedGateway{})

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/payments/webhook/thawani", map[string]any{"data": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDonation_NotFound(t *testing.T) {
	env := setupRouter(t, &fixedGateway{})

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/donations/dn_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDonationWithPayment_DedupedPaidIs400(t *testing.T) {
	gw := &fixedGateway{session: &thawani.Session{SessionID: "sess_dup", PaymentURL: "u"}}
	env := setupRouter(t, gw)
	ctx := context.Background()

	d, _, err := env.donationSvc.Create(ctx, &donation.CreateDonationRequest{
		Amount: 40, IdempotencyKey: "key_dup",
	})
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.Donation{}).Where("id = ?", d.ID).
		Update("status", types.DonationStatusPaid).Error)

	// The dedup hit resolves to a settled donation with no session to
	// reuse; a fresh session must be refused as a caller-state error,
	// not blamed on the gateway.
	w := doJSON(t, env.router, http.MethodPost, "/api/v1/donations/with-payment",
		map[string]any{"amount": 40, "idempotency_key": "key_dup"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Code int `json:"code"`
		Data struct {
			DonationID string `json:"donation_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 40000, body.Code)
	assert.Equal(t, d.DonationID, body.Data.DonationID)
}

func TestCreatePaymentRoute_Validation(t *testing.T) {
	env := setupRouter(t, &fixedGateway{session: &thawani.Session{SessionID: "s", PaymentURL: "u"}})

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/payments/create", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/v1/payments/create", map[string]any{"donation_id": "dn_missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
