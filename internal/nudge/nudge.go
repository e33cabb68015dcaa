package nudge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"rosterbot/internal/config"
	"rosterbot/internal/domain"
	"rosterbot/internal/fetch"
	slackbot "rosterbot/internal/integrations/slack"
	"rosterbot/internal/report"
)

var dayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// RegionNudge is one coordinator DM: the unsubmitted organizations of a
// region and who to send them to.
type RegionNudge struct {
	Region   string
	Contacts []string
	Orgs     []domain.Organization
}

// StartNudgeScheduler posts the unsubmitted list every nudge_day at
// nudge_time and DMs region coordinators their own region's list.
func StartNudgeScheduler(ctx context.Context, cfg config.Config, api *slack.Client, r *fetch.Refresher) {
	if cfg.NudgeDay == "" {
		log.Println("Nudge disabled (nudge_day not set)")
		return
	}

	weekday, ok := dayMap[strings.ToLower(cfg.NudgeDay)]
	if !ok {
		log.Printf("Invalid nudge_day '%s', using Monday", cfg.NudgeDay)
		weekday = time.Monday
	}

	hour, min, err := config.ParseClock(cfg.NudgeTime)
	if err != nil {
		log.Printf("Invalid nudge_time '%s': %v, using 10:00", cfg.NudgeTime, err)
		hour, min = 10, 0
	}

	log.Printf("Nudge scheduled every %s at %02d:%02d for %d regions with contacts", weekday, hour, min, len(cfg.RegionContacts))

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := nextWeekday(now, weekday, hour, min)
			wait := next.Sub(now)
			log.Printf("Next nudge at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			select {
			case <-ctx.Done():
				log.Printf("Nudge stopped")
				return
			case <-time.After(wait):
			}
			sendNudges(ctx, api, cfg, r)
		}
	}()
}

func nextWeekday(now time.Time, day time.Weekday, hour, min int) time.Time {
	daysUntil := (day - now.Weekday() + 7) % 7
	if daysUntil == 0 {
		target := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if now.Before(target) {
			return target
		}
		daysUntil = 7
	}
	return time.Date(now.Year(), now.Month(), now.Day()+int(daysUntil), hour, min, 0, 0, now.Location())
}

func sendNudges(ctx context.Context, api *slack.Client, cfg config.Config, r *fetch.Refresher) {
	if _, err := r.Refresh(ctx); err != nil && !errors.Is(err, fetch.ErrRefreshInProgress) {
		log.Printf("nudge refresh error: %v", err)
	}
	snap := r.Current()
	if len(snap.Unsubmitted) == 0 {
		log.Printf("nudge skipped: all %d organizations submitted", snap.TotalOrgs)
		return
	}

	if cfg.ReportChannelID != "" {
		msg := fmt.Sprintf("제출 마감 안내: %d/%d 기관 제출 (%.1f%%)\n%s",
			snap.SubmittedCount, snap.TotalOrgs, snap.SubmissionRate, report.FormatUnsubmitted(snap, ""))
		if _, _, err := api.PostMessage(cfg.ReportChannelID, slack.MsgOptionText(msg, false)); err != nil {
			log.Printf("Error posting nudge to channel %s: %v", cfg.ReportChannelID, err)
		} else {
			log.Printf("Posted nudge to channel %s unsubmitted=%d", cfg.ReportChannelID, len(snap.Unsubmitted))
		}
	}

	for _, n := range PlanRegionNudges(snap, cfg.RegionContacts) {
		userIDs, unresolved, err := slackbot.ResolveUserIDs(api, n.Contacts)
		if err != nil {
			log.Printf("Error resolving contacts for %s: %v", n.Region, err)
		}
		if len(unresolved) > 0 {
			log.Printf("Unresolved contacts for %s: %s", n.Region, strings.Join(unresolved, ", "))
		}
		msg := report.FormatUnsubmittedRegion(n.Orgs, n.Region)
		for _, userID := range userIDs {
			channel, _, _, err := api.OpenConversation(&slack.OpenConversationParameters{
				Users: []string{userID},
			})
			if err != nil {
				log.Printf("Error opening DM with %s: %v", userID, err)
				continue
			}
			if _, _, err := api.PostMessage(channel.ID, slack.MsgOptionText(msg, false)); err != nil {
				log.Printf("Error sending nudge to %s: %v", userID, err)
			} else {
				log.Printf("Sent nudge to %s region=%s orgs=%d", userID, n.Region, len(n.Orgs))
			}
		}
	}
}

// PlanRegionNudges pairs each region that has contacts with its
// unsubmitted organizations. Regions with nothing outstanding are skipped.
func PlanRegionNudges(snap *domain.Snapshot, contacts map[string][]string) []RegionNudge {
	var regions []string
	for region, who := range contacts {
		if len(who) > 0 {
			regions = append(regions, region)
		}
	}
	domain.SortRegionNames(regions)

	var out []RegionNudge
	for _, region := range regions {
		orgs := domain.FilterOrganizations(snap.Unsubmitted, region, "")
		if len(orgs) == 0 {
			continue
		}
		out = append(out, RegionNudge{Region: region, Contacts: contacts[region], Orgs: orgs})
	}
	return out
}
