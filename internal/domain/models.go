package domain

import "time"

// Organization is one roster entry expected to submit.
type Organization struct {
	Region string `yaml:"region" json:"region"`
	Code   string `yaml:"code" json:"code"`
	Name   string `yaml:"name" json:"name"`
	Phone  string `yaml:"phone" json:"phone"`
}

// SurveyRecord is one parsed sheet row, before deduplication.
type SurveyRecord struct {
	Timestamp   string `json:"timestamp"`
	Region      string `json:"region"`
	OrgName     string `json:"org_name"`
	Boxes       int    `json:"boxes"`
	Quantity    int    `json:"quantity"`
	Remarks     string `json:"remarks"`
	ManagerName string `json:"manager_name"`
}

// Anomalous reports a box received with no contents logged.
func (r SurveyRecord) Anomalous() bool {
	return r.Boxes > 0 && r.Quantity == 0
}

type RegionStats struct {
	Region    string `json:"region"`
	Submitted int    `json:"submitted"`
	Total     int    `json:"total"`
	Boxes     int    `json:"boxes"`
	Quantity  int    `json:"quantity"`
}

// Snapshot is the result of one full processing pass. It is never
// mutated after construction; a refresh replaces it wholesale.
type Snapshot struct {
	Records        []SurveyRecord `json:"records"`
	TotalOrgs      int            `json:"total_orgs"`
	SubmittedCount int            `json:"submitted_count"`
	SubmissionRate float64        `json:"submission_rate"`
	TotalBoxes     int            `json:"total_boxes"`
	TotalQuantity  int            `json:"total_quantity"`
	Submitted      []Organization `json:"submitted_orgs"`
	Unsubmitted    []Organization `json:"unsubmitted_orgs"`
	RegionStats    []RegionStats  `json:"region_stats"`
	UnmatchedNames []string       `json:"unmatched_names"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

func (s *Snapshot) Anomalies() []SurveyRecord {
	var out []SurveyRecord
	for _, r := range s.Records {
		if r.Anomalous() {
			out = append(out, r)
		}
	}
	return out
}

func (s *Snapshot) RegionNames() []string {
	names := make([]string, 0, len(s.RegionStats))
	for _, st := range s.RegionStats {
		names = append(names, st.Region)
	}
	return names
}

func (s *Snapshot) Region(name string) (RegionStats, bool) {
	for _, st := range s.RegionStats {
		if st.Region == name {
			return st, true
		}
	}
	return RegionStats{}, false
}

func (s *Snapshot) UnsubmittedCount() int {
	return s.TotalOrgs - s.SubmittedCount
}
