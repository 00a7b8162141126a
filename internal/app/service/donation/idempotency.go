package donation

import (
	"context"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/config"
	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/logctx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyKeyPrefix = "donation:idem:"

// IdempotencyStore maps caller-supplied idempotency keys onto donation
// references for the configured dedup window. It is a courtesy against
// accidental double-submits, not a correctness guarantee: when redis is
// unavailable it degrades to a miss rather than blocking creation.
type IdempotencyStore struct {
	rdb *redis.Client
	cfg *config.Config
	log *zap.SugaredLogger
}

func NewIdempotencyStore(cfg *config.Config, rdb *redis.Client, log *zap.SugaredLogger) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, cfg: cfg, log: log}
}

// Lookup returns the donation reference previously recorded for key.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool) {
	val, err := s.rdb.Get(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			logctx.FromCtx(ctx, s.log).Warnw("idempotency lookup failed", "key", key, "err", err)
		}
		return "", false
	}
	return val, val != ""
}

// Remember records key -> donationID for the dedup window. First writer
// wins; a concurrent duplicate keeps the original mapping.
func (s *IdempotencyStore) Remember(ctx context.Context, key, donationID string) {
	ok, err := s.rdb.SetNX(ctx, idempotencyKeyPrefix+key, donationID, s.cfg.Payment.IdempotencyWindow).Result()
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("idempotency remember failed", "key", key, "err", err)
		return
	}
	if !ok {
		logctx.FromCtx(ctx, s.log).Infow("idempotency key already recorded", "key", key)
	}
}
