package fetch

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartAutoRefreshScheduler refreshes on a standard 5-field cron schedule
// (minute hour day-of-month month day-of-week) and hands each summary to
// notify, which may be nil. An empty schedule disables it.
// Examples: "*/10 * * * *" (every 10 minutes), "0 9-18 * * 1-5" (hourly, weekday office hours).
func StartAutoRefreshScheduler(ctx context.Context, schedule string, loc *time.Location, r *Refresher, notify func(string)) bool {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Println("Auto-refresh disabled (refresh_schedule not set)")
		return false
	}
	if loc == nil {
		loc = time.Local
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid refresh_schedule '%s': %v, auto-refresh disabled", schedule, err)
		return false
	}
	log.Printf("Auto-refresh scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(loc)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next auto-refresh at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Second))

			select {
			case <-ctx.Done():
				log.Printf("Auto-refresh stopped")
				return
			case <-time.After(wait):
			}

			result, refreshErr := r.Refresh(ctx)
			if errors.Is(refreshErr, ErrRefreshInProgress) {
				log.Printf("Auto-refresh skipped: %v", refreshErr)
				continue
			}
			if refreshErr != nil {
				log.Printf("Auto-refresh abandoned: %v", refreshErr)
				continue
			}
			summary := FormatRefreshSummary(result)
			log.Printf("Auto-refresh complete: %s", summary)
			if notify != nil {
				notify(summary)
			}
		}
	}()
	return true
}
