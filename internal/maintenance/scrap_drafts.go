package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/internal/scrap"
)

const defaultScrapDraftTTL = 72 * time.Hour

type ScrapDraftParams struct {
	DB     txRunner
	Orders *scrap.Repository
	TTL    time.Duration
}

// ScrapDraftJob removes draft scrap orders left behind by batches whose validation failed.
// A draft never decremented stock, so removing it changes no quantities.
type ScrapDraftJob struct {
	db     txRunner
	orders *scrap.Repository
	ttl    time.Duration
	now    func() time.Time
}

func NewScrapDraftJob(params ScrapDraftParams) (*ScrapDraftJob, error) {
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Orders == nil {
		return nil, errors.New("scrap repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultScrapDraftTTL
	}
	return &ScrapDraftJob{db: params.DB, orders: params.Orders, ttl: ttl, now: time.Now}, nil
}

func (j *ScrapDraftJob) Name() string { return "stale-scrap-drafts" }

func (j *ScrapDraftJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.ttl)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.orders.WithTx(tx).DeleteStaleDrafts(ctx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("stale scrap drafts: %w", err)
	}
	return deleted, nil
}
