// Package scheduler runs the campaign on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/usecase"
	"github.com/golang/glog"
)

// CampaignSchedule is a worker that starts a campaign run every Period.
// A run that fails is logged and the next tick tries again.
type CampaignSchedule struct {
	Runner usecase.Runner
	Period time.Duration
}

// Run blocks until ctx is cancelled. Ticks that fire while a run is still in
// progress are dropped.
func (s *CampaignSchedule) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()

	glog.Infof("Starting campaign schedule worker, period %s...", s.Period)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped campaign schedule worker: %w", context.Canceled)
		case <-ticker.C:
			result, err := s.Runner.Run(ctx)
			if err != nil {
				glog.Errorf("scheduled campaign run failed: %v", err)
				continue
			}
			glog.Infof("scheduled campaign run %s sent %d emails", result.RunID, result.Sent)
		}
	}
}
