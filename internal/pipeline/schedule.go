package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ternarybob/venicekb/internal/common"
)

// RunScheduled runs Build once, then again every time cronExpr fires,
// until ctx is cancelled. A build failure is logged and does not stop
// the schedule — the next tick still runs.
func (p *Pipeline) RunScheduled(ctx context.Context, cronExpr string) error {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid schedule expression %q: %w", cronExpr, err)
	}

	if _, err := p.Build(ctx); err != nil {
		p.logger.Error().Err(err).Msg("scheduled build failed")
	}

	next := schedule.Next(time.Now())
	for {
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			common.SafeGoWithContext(ctx, p.logger, "schedule:build", func() {
				if _, err := p.Build(ctx); err != nil {
					p.logger.Error().Err(err).Msg("scheduled build failed")
				}
			})
			next = schedule.Next(time.Now())
		}
	}
}

// NextScheduledRun reports when cronExpr next fires after the given time,
// used by the CLI to print "next run at" without starting a scheduler.
func NextScheduledRun(cronExpr string, after time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule expression %q: %w", cronExpr, err)
	}
	return schedule.Next(after), nil
}
