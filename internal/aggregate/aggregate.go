package aggregate

import (
	"math"
	"strings"

	"rosterbot/internal/domain"
)

// Build folds parsed records and the roster into a snapshot.
//
// Records are deduplicated by trimmed organization name with the last
// occurrence winning; survivors keep the position where their name first
// appeared. Roster entries are submitted iff their name exactly matches a
// surviving record. Region buckets come from the roster, but a record is
// counted under the region it reported itself.
func Build(records []domain.SurveyRecord, orgs []domain.Organization) domain.Snapshot {
	deduped := Deduplicate(records)

	submittedNames := make(map[string]bool, len(deduped))
	for _, r := range deduped {
		submittedNames[strings.TrimSpace(r.OrgName)] = true
	}

	snap := domain.Snapshot{
		Records:   deduped,
		TotalOrgs: len(orgs),
	}

	rosterNames := make(map[string]bool, len(orgs))
	for _, org := range orgs {
		rosterNames[org.Name] = true
		if submittedNames[org.Name] {
			snap.Submitted = append(snap.Submitted, org)
		} else {
			snap.Unsubmitted = append(snap.Unsubmitted, org)
		}
	}
	snap.SubmittedCount = len(snap.Submitted)
	snap.SubmissionRate = Rate(snap.SubmittedCount, snap.TotalOrgs)

	for _, r := range deduped {
		snap.TotalBoxes = addSaturating(snap.TotalBoxes, r.Boxes)
		snap.TotalQuantity = addSaturating(snap.TotalQuantity, r.Quantity)
		if name := strings.TrimSpace(r.OrgName); !rosterNames[name] {
			snap.UnmatchedNames = append(snap.UnmatchedNames, name)
		}
	}

	snap.RegionStats = regionStats(deduped, orgs)
	return snap
}

// Deduplicate keeps the last record per trimmed organization name.
func Deduplicate(records []domain.SurveyRecord) []domain.SurveyRecord {
	index := make(map[string]int, len(records))
	var out []domain.SurveyRecord
	for _, r := range records {
		key := strings.TrimSpace(r.OrgName)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			out[i] = r
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}

// Rate returns submitted/total as a percentage with one decimal place.
// An empty roster yields 0.
func Rate(submitted, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(submitted)/float64(total)*1000) / 10
}

// addSaturating adds two non-negative counts, clamping at math.MaxInt.
func addSaturating(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func regionStats(deduped []domain.SurveyRecord, orgs []domain.Organization) []domain.RegionStats {
	buckets := make(map[string]*domain.RegionStats)
	var order []string
	for _, org := range orgs {
		b, ok := buckets[org.Region]
		if !ok {
			b = &domain.RegionStats{Region: org.Region}
			buckets[org.Region] = b
			order = append(order, org.Region)
		}
		b.Total++
	}

	for _, r := range deduped {
		b, ok := buckets[strings.TrimSpace(r.Region)]
		if !ok {
			continue
		}
		b.Submitted++
		b.Boxes = addSaturating(b.Boxes, r.Boxes)
		b.Quantity = addSaturating(b.Quantity, r.Quantity)
	}

	stats := make([]domain.RegionStats, 0, len(order))
	for _, region := range order {
		stats = append(stats, *buckets[region])
	}
	domain.SortRegionStats(stats)
	return stats
}
