package donation

import (
	"context"
	"testing"
	"time"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/app/service/auditlog"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/internal/models"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Program{}, &models.Campaign{}, &models.Donation{},
		&models.GiftMeta{}, &models.AuditLog{}, &models.PaymentWebhookLog{},
	))
	return db
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env: config.EnvDev,
		Payment: config.PaymentConfig{
			ExpiryHours:       24,
			IdempotencyWindow: 5 * time.Minute,
		},
	}
	log := zap.NewNop().Sugar()
	audit := auditlog.New(db, log)
	idem := NewIdempotencyStore(cfg, rdb, log)
	return NewService(cfg, db, log, audit, idem), db
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = svc.Create(ctx, &CreateDonationRequest{Amount: -5})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = svc.Create(ctx, &CreateDonationRequest{Amount: 10, Type: types.DonationTypeGift})
	assert.ErrorIs(t, err, ErrGiftDetailsRequired)
}

func TestCreate_PendingWithExpiry(t *testing.T) {
	svc, _ := setupService(t)

	d, deduped, err := svc.Create(context.Background(), &CreateDonationRequest{Amount: 12.345, DonorName: "Ali"})
	require.NoError(t, err)
	assert.False(t, deduped)
	assert.NotEmpty(t, d.DonationID)
	assert.Equal(t, types.DonationStatusPending, d.Status)
	assert.Equal(t, types.DonationTypeQuick, d.Type)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), d.ExpiresAt, time.Minute)
}

func TestCreate_GiftPersistsMeta(t *testing.T) {
	svc, db := setupService(t)

	d, _, err := svc.Create(context.Background(), &CreateDonationRequest{
		Amount: 10,
		Type:   types.DonationTypeGift,
		Gift:   &GiftDetails{RecipientName: "Sara", RecipientPhone: "99112233", Message: "for you"},
	})
	require.NoError(t, err)

	var meta models.GiftMeta
	require.NoError(t, db.Where("donation_ref = ?", d.ID).First(&meta).Error)
	assert.Equal(t, "Sara", meta.RecipientName)
}

func TestCreate_IdempotencyDedup(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, deduped, err := svc.Create(ctx, &CreateDonationRequest{Amount: 10, IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.False(t, deduped)

	second, deduped, err := svc.Create(ctx, &CreateDonationRequest{Amount: 10, IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.True(t, deduped)
	assert.Equal(t, first.DonationID, second.DonationID)

	// A different key creates a fresh donation.
	third, deduped, err := svc.Create(ctx, &CreateDonationRequest{Amount: 10, IdempotencyKey: "k2"})
	require.NoError(t, err)
	assert.False(t, deduped)
	assert.NotEqual(t, first.DonationID, third.DonationID)
}

func TestApplyGatewayResult_PaidIncrementsCampaign(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	campaign := &models.Campaign{Title: "Winter drive"}
	require.NoError(t, db.Create(campaign).Error)

	d, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 25, CampaignID: &campaign.ID})
	require.NoError(t, err)
	require.NoError(t, svc.AttachSession(ctx, d, "sess_1", nil))

	tr, err := svc.ApplyGatewayResult(ctx, d.ID, types.GatewayStatusPaid, lo.ToPtr(int64(25000)), nil)
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, types.DonationStatusPaid, tr.To)

	got, err := svc.GetByDonationID(ctx, d.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusPaid, got.Status)
	require.NotNil(t, got.PaidAmount)
	assert.InDelta(t, 25.0, *got.PaidAmount, 1e-9)
	assert.NotNil(t, got.PaidAt)

	var c models.Campaign
	require.NoError(t, db.First(&c, campaign.ID).Error)
	assert.InDelta(t, 25.0, c.RaisedAmount, 1e-9)
}

func TestApplyGatewayResult_DuplicatePaidIsNoop(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	program := &models.Program{Title: "Tuition aid"}
	require.NoError(t, db.Create(program).Error)

	d, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 10, ProgramID: &program.ID})
	require.NoError(t, err)

	tr, err := svc.ApplyGatewayResult(ctx, d.ID, types.GatewayStatusPaid, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, tr)

	// Second delivery of the same event must not double the balance.
	tr, err = svc.ApplyGatewayResult(ctx, d.ID, types.GatewayStatusPaid, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, tr)

	var p models.Program
	require.NoError(t, db.First(&p, program.ID).Error)
	assert.InDelta(t, 10.0, p.RaisedAmount, 1e-9)
}

func TestApplyGatewayResult_LateCancelAfterPaid(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	d, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 10})
	require.NoError(t, err)

	_, err = svc.ApplyGatewayResult(ctx, d.ID, types.GatewayStatusPaid, nil, nil)
	require.NoError(t, err)

	tr, err := svc.ApplyGatewayResult(ctx, d.ID, types.GatewayStatusCancelled, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, tr)

	got, err := svc.GetByDonationID(ctx, d.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusPaid, got.Status)
}

func TestApplyGatewayResult_CampaignPrecedesProgram(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	program := &models.Program{Title: "Aid"}
	require.NoError(t, db.Create(program).Error)
	campaign := &models.Campaign{Title: "Drive", ProgramID: &program.ID}
	require.NoError(t, db.Create(campaign).Error)

	d, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 7, ProgramID: &program.ID, CampaignID: &campaign.ID})
	require.NoError(t, err)

	_, err = svc.ApplyGatewayResult(ctx, d.ID, types.GatewayStatusPaid, nil, nil)
	require.NoError(t, err)

	var c models.Campaign
	require.NoError(t, db.First(&c, campaign.ID).Error)
	assert.InDelta(t, 7.0, c.RaisedAmount, 1e-9)

	var p models.Program
	require.NoError(t, db.First(&p, program.ID).Error)
	assert.InDelta(t, 0.0, p.RaisedAmount, 1e-9)
}

func TestExpireOverdue(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	fresh, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 5})
	require.NoError(t, err)

	stale, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 5})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Donation{}).Where("id = ?", stale.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	n, err := svc.ExpireOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.GetByDonationID(ctx, stale.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusExpired, got.Status)

	got, err = svc.GetByDonationID(ctx, fresh.DonationID)
	require.NoError(t, err)
	assert.Equal(t, types.DonationStatusPending, got.Status)
}

func TestPendingWithSession(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	withSession, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 5})
	require.NoError(t, err)
	require.NoError(t, svc.AttachSession(ctx, withSession, "sess_a", nil))

	_, _, err = svc.Create(ctx, &CreateDonationRequest{Amount: 5})
	require.NoError(t, err)

	paid, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 5})
	require.NoError(t, err)
	require.NoError(t, svc.AttachSession(ctx, paid, "sess_b", nil))
	_, err = svc.ApplyGatewayResult(ctx, paid.ID, types.GatewayStatusPaid, nil, nil)
	require.NoError(t, err)

	rows, err := svc.PendingWithSession(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, withSession.DonationID, rows[0].DonationID)
}

func TestScanDonations_FilterByStatus(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	d1, _, err := svc.Create(ctx, &CreateDonationRequest{Amount: 5})
	require.NoError(t, err)
	_, err = svc.ApplyGatewayResult(ctx, d1.ID, types.GatewayStatusPaid, nil, nil)
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, &CreateDonationRequest{Amount: 6})
	require.NoError(t, err)

	res, err := svc.ScanDonations(ctx, &ScanDonationsRequest{
		Filters: []*types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"paid"}}},
		Size:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, d1.DonationID, res.Items[0].DonationID)
}
