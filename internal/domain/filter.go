package domain

import "strings"

// AllRegions is the dropdown value that disables region filtering.
const AllRegions = "전체"

func regionMatches(filter, region string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == AllRegions {
		return true
	}
	return region == filter
}

// FilterRecords narrows records by region and a case-insensitive search
// over organization name and region.
func FilterRecords(records []SurveyRecord, region, query string) []SurveyRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []SurveyRecord
	for _, r := range records {
		if !regionMatches(region, r.Region) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.OrgName), q) &&
			!strings.Contains(strings.ToLower(r.Region), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterOrganizations is FilterRecords for roster entries; the query also
// matches the organization code.
func FilterOrganizations(orgs []Organization, region, query string) []Organization {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Organization
	for _, o := range orgs {
		if !regionMatches(region, o.Region) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(o.Name), q) &&
			!strings.Contains(strings.ToLower(o.Region), q) &&
			!strings.Contains(strings.ToLower(o.Code), q) {
			continue
		}
		out = append(out, o)
	}
	return out
}
