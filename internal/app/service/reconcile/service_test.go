package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/auditlog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/donation"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/platform/thawani"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// mapGateway serves canned session details keyed by session id.
type mapGateway struct {
	details map[string]*thawani.SessionDetails
	errs    map[string]error
	calls   map[string]int
}

func (g *mapGateway) GetSessionDetails(_ context.Context, sessionID string) (*thawani.SessionDetails, error) {
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	g.calls[sessionID]++
	if err, ok := g.errs[sessionID]; ok {
		return nil, err
	}
	if d, ok := g.details[sessionID]; ok {
		return d, nil
	}
	return &thawani.SessionDetails{SessionID: sessionID}, nil
}

func setupReconcile(t *testing.T, gw Gateway) (*Service, *donation.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Program{}, &models.Campaign{}, &models.Donation{},
		&models.GiftMeta{}, &models.AuditLog{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env:       config.EnvDev,
		Payment:   config.PaymentConfig{ExpiryHours: 24, IdempotencyWindow: 5 * time.Minute},
		Reconcile: config.ReconcileConfig{Lookback: 48 * time.Hour},
	}
	log := zap.NewNop().Sugar()
	audit := auditlog.New(db, log)
	idem := donation.NewIdempotencyStore(cfg, rdb, log)
	donationSvc := donation.NewService(cfg, db, log, audit, idem)
	return NewService(cfg, gw, donationSvc, log), donationSvc, db
}

func pendingWithSession(t *testing.T, donationSvc *donation.Service, sessionID string) *models.Donation {
	t.Helper()
	ctx := context.Background()
	d, _, err := donationSvc.Create(ctx, &donation.CreateDonationRequest{Amount: 15})
	require.NoError(t, err)
	require.NoError(t, donationSvc.AttachSession(ctx, d, sessionID, nil))
	return d
}

func TestRun_AppliesGatewayOutcomes(t *testing.T) {
	gw := &mapGateway{details: map[string]*thawani.SessionDetails{
		"sess_paid":    {SessionID: "sess_paid", PaymentStatus: "paid"},
		"sess_cancel":  {SessionID: "sess_cancel", PaymentStatus: "cancelled"},
		"sess_nothing": {SessionID: "sess_nothing", PaymentStatus: "unpaid"},
	}}
	svc, donationSvc, _ := setupReconcile(t, gw)
	ctx := context.Background()

	paid := pendingWithSession(t, donationSvc, "sess_paid")
	cancelled := pendingWithSession(t, donationSvc, "sess_cancel")
	untouched := pendingWithSession(t, donationSvc, "sess_nothing")

	summary, decisions, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, decisions)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Errored)

	for _, tc := range []struct {
		d    *models.Donation
		want types.DonationStatus
	}{
		{paid, types.DonationStatusPaid},
		{cancelled, types.DonationStatusCancelled},
		{untouched, types.DonationStatusPending},
	} {
		got, err := donationSvc.GetByDonationID(ctx, tc.d.DonationID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Status)
	}
}

func TestRun_DryRunCountsWithoutWriting(t *testing.T) {
	gw := &mapGateway{details: map[string]*thawani.SessionDetails{
		"sess_dry":      {SessionID: "sess_dry", PaymentStatus: "paid"},
		"sess_dry_noop": {SessionID: "sess_dry_noop", PaymentStatus: "unpaid"},
	}}
	svc, donationSvc, _ := setupReconcile(t, gw)
	ctx := context.Background()

	d := pendingWithSession(t, donationSvc, "sess_dry")
	noop := pendingWithSession(t, donationSvc, "sess_dry_noop")

	summary, decisions, err := svc.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Errored)

	require.Len(t, decisions, 2)
	byID := map[string]Decision{}
	for _, dec := range decisions {
		byID[dec.DonationID] = dec
	}
	require.NotNil(t, byID[d.DonationID].WouldApply)
	assert.Equal(t, types.DonationStatusPaid, *byID[d.DonationID].WouldApply)
	assert.Nil(t, byID[noop.DonationID].WouldApply)

	// The stored rows are untouched in either case.
	for _, ref := range []string{d.DonationID, noop.DonationID} {
		got, err := donationSvc.GetByDonationID(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, types.DonationStatusPending, got.Status)
	}
}

func TestRun_GatewayErrorDoesNotAbortBatch(t *testing.T) {
	gw := &mapGateway{
		details: map[string]*thawani.SessionDetails{
			"sess_ok": {SessionID: "sess_ok", PaymentStatus: "paid"},
		},
		errs: map[string]error{"sess_bad": errors.New("gateway 500")},
	}
	svc, donationSvc, _ := setupReconcile(t, gw)
	ctx := context.Background()

	bad := pendingWithSession(t, donationSvc, "sess_bad")
	time.Sleep(5 * time.Millisecond)
	ok := pendingWithSession(t, donationSvc, "sess_ok")

	summary, _, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Errored)

	// Transient failures are retried before giving up.
	assert.Equal(t, gatewayAttempts, gw.calls["sess_bad"])

	got, err := donationSvc.GetByDonationID(ctx, ok.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusPaid, got.Status)

	got, err = donationSvc.GetByDonationID(ctx, bad.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusPending, got.Status)
}

func TestRun_ExpiresOverduePending(t *testing.T) {
	gw := &mapGateway{}
	svc, donationSvc, db := setupReconcile(t, gw)
	ctx := context.Background()

	d, _, err := donationSvc.Create(ctx, &donation.CreateDonationRequest{Amount: 5})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Donation{}).Where("id = ?", d.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	summary, _, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Expired)

	got, err := donationSvc.GetByDonationID(ctx, d.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusExpired, got.Status)
}
