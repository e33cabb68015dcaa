package fetch

import (
	"math/rand/v2"
	"time"

	"rosterbot/internal/domain"
)

const sampleSize = 15

// SampleRecords fabricates a fixed demo submission set drawn from the
// roster. The seed is constant so repeated refreshes look identical apart
// from the timestamps, which count back hourly from now.
func SampleRecords(orgs []domain.Organization, now time.Time) []domain.SurveyRecord {
	rng := rand.New(rand.NewPCG(2025, 59))
	n := min(sampleSize, len(orgs))
	picks := rng.Perm(len(orgs))[:n]

	records := make([]domain.SurveyRecord, 0, n)
	for i, idx := range picks {
		org := orgs[idx]
		rec := domain.SurveyRecord{
			Timestamp:   now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			Region:      org.Region,
			OrgName:     org.Name,
			Boxes:       rng.IntN(10) + 1,
			Quantity:    rng.IntN(500) + 100,
			ManagerName: "홍길동",
		}
		if rng.Float64() > 0.7 {
			rec.Remarks = "특이사항 있음"
		}
		records = append(records, rec)
	}
	return records
}
