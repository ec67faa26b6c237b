package sweep

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Watch runs a sweep immediately and then every interval (with up to 10%
// jitter) until ctx is cancelled. onReport, if set, receives each report.
func (s *Sweeper) Watch(ctx context.Context, interval time.Duration, opts RunOptions, onReport func(Report)) error {
	if interval <= 0 {
		interval = time.Hour
	}

	sweep := func() {
		report := s.Run(ctx, opts)
		if onReport != nil {
			onReport(report)
		}
	}

	ticker := time.NewTicker(jittered(interval))
	defer ticker.Stop()

	sweep()
	for {
		select {
		case <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sweep()
			ticker.Reset(jittered(interval))
		case <-ctx.Done():
			s.logger.Debug("watch stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}
}

// jittered spreads sweeps of many installs across ±10% of interval.
func jittered(interval time.Duration) time.Duration {
	spread := int64(interval / 10)
	if spread <= 0 {
		return interval
	}
	//nolint:gosec // G404: scheduling jitter does not need crypto randomness
	offset := time.Duration(rand.Int64N(2*spread)) - time.Duration(spread)
	return interval + offset
}
