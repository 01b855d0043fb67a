package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuvault/docuvault/internal/repo"
)

// StaleCheckoutReportJob logs checkouts held longer than maxAge. It is
// strictly read-only: locks never expire and are never force-released, this
// exists so long-held locks show up in the logs instead of going unnoticed.
type StaleCheckoutReportJob struct {
	checkouts *repo.CheckoutRepo
	maxAge    time.Duration
}

func NewStaleCheckoutReportJob(checkouts *repo.CheckoutRepo, maxAge time.Duration) *StaleCheckoutReportJob {
	return &StaleCheckoutReportJob{checkouts: checkouts, maxAge: maxAge}
}

func (j *StaleCheckoutReportJob) Name() string {
	return "stale_checkout_report"
}

func (j *StaleCheckoutReportJob) Run(ctx context.Context) error {
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 72 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	stale, err := j.checkouts.ListOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, co := range stale {
		logger.Warn("stale checkout",
			zap.String("document_id", co.DocumentID),
			zap.String("user_id", co.UserID),
			zap.Int64("checkout_time", co.CheckoutTime),
			zap.Int64("age_seconds", time.Now().Unix()-co.CheckoutTime),
		)
	}
	if len(stale) > 0 {
		logger.Info("stale checkout report", zap.Int("count", len(stale)))
	}
	return nil
}
