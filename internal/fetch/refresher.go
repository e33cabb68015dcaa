package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"rosterbot/internal/aggregate"
	"rosterbot/internal/domain"
	"rosterbot/internal/sheet"
)

// ErrRefreshInProgress is returned when a refresh is triggered while
// another one is still running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

type Options struct {
	SheetURL      string
	UseSampleData bool
	Location      *time.Location
}

// RefreshResult tracks what one refresh pass saw.
type RefreshResult struct {
	RowsParsed     int
	Deduplicated   int
	Submitted      int
	TotalOrgs      int
	SubmissionRate float64
	Unmatched      int
	Anomalies      int
	UsedSample     bool
	Errors         []string
}

// Refresher owns the current snapshot. Readers call Current and never see
// a partially built snapshot; a refresh swaps the pointer wholesale.
type Refresher struct {
	opts    Options
	parser  *sheet.Parser
	orgs    []domain.Organization
	now     func() time.Time
	running atomic.Bool
	current atomic.Pointer[domain.Snapshot]
}

func NewRefresher(opts Options, parser *sheet.Parser, orgs []domain.Organization) *Refresher {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	r := &Refresher{
		opts:   opts,
		parser: parser,
		orgs:   orgs,
		now:    time.Now,
	}
	initial := aggregate.Build(nil, orgs)
	r.current.Store(&initial)
	return r
}

// Current returns the latest snapshot. Before the first refresh it is the
// all-unsubmitted snapshot with a zero GeneratedAt.
func (r *Refresher) Current() *domain.Snapshot {
	return r.current.Load()
}

// Refresh fetches, parses and aggregates the sheet, then publishes the new
// snapshot. A failed fetch still publishes a snapshot built from no records;
// the failure is reported in the result rather than as an error.
func (r *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer r.running.Store(false)

	now := r.now().In(r.opts.Location)
	var result RefreshResult
	var records []domain.SurveyRecord

	switch {
	case r.opts.UseSampleData:
		log.Printf("refresh using sample data (sheet_csv_url not set)")
		records = SampleRecords(r.orgs, now)
		result.UsedSample = true
	default:
		text, err := FetchSheetText(ctx, r.opts.SheetURL)
		if err != nil && ctx.Err() != nil {
			// abandoned refresh: keep the last published snapshot
			log.Printf("refresh cancelled: %v", err)
			return result, ctx.Err()
		}
		if err != nil {
			log.Printf("refresh fetch error: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("시트: %v", err))
		} else {
			records = r.parser.Parse(text)
		}
	}

	snap := aggregate.Build(records, r.orgs)
	snap.GeneratedAt = now
	r.current.Store(&snap)

	result.RowsParsed = len(records)
	result.Deduplicated = len(snap.Records)
	result.Submitted = snap.SubmittedCount
	result.TotalOrgs = snap.TotalOrgs
	result.SubmissionRate = snap.SubmissionRate
	result.Unmatched = len(snap.UnmatchedNames)
	result.Anomalies = len(snap.Anomalies())

	log.Printf("refresh done rows=%d deduped=%d submitted=%d/%d unmatched=%d anomalies=%d sample=%t",
		result.RowsParsed, result.Deduplicated, result.Submitted, result.TotalOrgs,
		result.Unmatched, result.Anomalies, result.UsedSample)
	return result, nil
}

// FormatRefreshSummary returns a human-readable summary of a RefreshResult.
func FormatRefreshSummary(result RefreshResult) string {
	var b strings.Builder
	if result.UsedSample {
		b.WriteString("[샘플 데이터] ")
	}
	if len(result.Errors) > 0 && result.RowsParsed == 0 {
		fmt.Fprintf(&b, "시트를 가져오지 못했습니다. 모든 기관을 미제출로 표시합니다 (0/%d).\n%s",
			result.TotalOrgs, strings.Join(result.Errors, "\n"))
		return b.String()
	}

	fmt.Fprintf(&b, "제출 %d/%d (%.1f%%), 응답 %d건", result.Submitted, result.TotalOrgs,
		result.SubmissionRate, result.RowsParsed)
	if result.Deduplicated != result.RowsParsed {
		fmt.Fprintf(&b, " (중복 제외 %d건)", result.Deduplicated)
	}

	var extras []string
	if result.Unmatched > 0 {
		extras = append(extras, fmt.Sprintf("명단 불일치 %d건", result.Unmatched))
	}
	if result.Anomalies > 0 {
		extras = append(extras, fmt.Sprintf("수량 확인 필요 %d건", result.Anomalies))
	}
	if len(extras) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.Join(extras, ", "))
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "\n경고:\n%s", strings.Join(result.Errors, "\n"))
	}
	return b.String()
}
