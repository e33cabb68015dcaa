package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rosterbot/internal/domain"
)

var printer = message.NewPrinter(language.Korean)

// Number renders n with thousands separators.
func Number(n int) string {
	return printer.Sprintf("%d", n)
}

func generatedAt(s *domain.Snapshot) string {
	if s.GeneratedAt.IsZero() {
		return "아직 갱신되지 않음"
	}
	return s.GeneratedAt.Format("2006-01-02 15:04")
}

// FormatSummary renders the headline numbers of a snapshot.
func FormatSummary(s *domain.Snapshot, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* (기준 %s)\n", title, generatedAt(s))
	fmt.Fprintf(&b, "• 제출: %d/%d 기관 (%.1f%%)\n", s.SubmittedCount, s.TotalOrgs, s.SubmissionRate)
	fmt.Fprintf(&b, "• 미제출: %d 기관\n", s.UnsubmittedCount())
	fmt.Fprintf(&b, "• 수령 박스: %s, 내용물 수량: %s", Number(s.TotalBoxes), Number(s.TotalQuantity))
	if n := len(s.Anomalies()); n > 0 {
		fmt.Fprintf(&b, "\n• 수량 확인 필요: %d건", n)
	}
	if n := len(s.UnmatchedNames); n > 0 {
		fmt.Fprintf(&b, "\n• 명단에 없는 기관명: %d건", n)
	}
	return b.String()
}

// FormatRegion renders one region's line, or a not-found message.
func FormatRegion(s *domain.Snapshot, region string) string {
	st, ok := s.Region(region)
	if !ok {
		return fmt.Sprintf("'%s' 시군을 찾을 수 없습니다.\n%s", region, FormatRegionList(s))
	}
	return fmt.Sprintf("*%s*: 제출 %d/%d, 박스 %s, 수량 %s",
		st.Region, st.Submitted, st.Total, Number(st.Boxes), Number(st.Quantity))
}

// FormatRegionTable renders every region as a fixed-width block.
func FormatRegionTable(s *domain.Snapshot) string {
	if len(s.RegionStats) == 0 {
		return "등록된 시군이 없습니다."
	}
	var b strings.Builder
	b.WriteString("```\n")
	for _, st := range s.RegionStats {
		mark := ""
		if st.Total > 0 && st.Submitted >= st.Total {
			mark = " ✓"
		}
		fmt.Fprintf(&b, "%s  %d/%d  박스 %s  수량 %s%s\n",
			st.Region, st.Submitted, st.Total, Number(st.Boxes), Number(st.Quantity), mark)
	}
	b.WriteString("```")
	return b.String()
}

// FormatUnsubmitted lists roster entries that have not submitted, grouped
// by region in collation order.
func FormatUnsubmitted(s *domain.Snapshot, region string) string {
	orgs := domain.FilterOrganizations(s.Unsubmitted, region, "")
	if len(orgs) == 0 {
		if isAll(region) {
			return "모든 기관이 제출했습니다."
		}
		return fmt.Sprintf("%s: 미제출 기관이 없습니다.", region)
	}

	byRegion := make(map[string][]domain.Organization)
	for _, org := range orgs {
		byRegion[org.Region] = append(byRegion[org.Region], org)
	}
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	domain.SortRegionNames(regions)

	var b strings.Builder
	fmt.Fprintf(&b, "*미제출 기관 %d곳*", len(orgs))
	for _, r := range regions {
		fmt.Fprintf(&b, "\n*%s*", r)
		for _, org := range byRegion[r] {
			b.WriteString("\n")
			b.WriteString(formatOrgLine(org))
		}
	}
	return b.String()
}

// FormatUnsubmittedRegion is the list sent to one region's coordinator.
func FormatUnsubmittedRegion(orgs []domain.Organization, region string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* 미제출 기관 %d곳입니다. 제출을 독려해 주세요.", region, len(orgs))
	for _, org := range orgs {
		b.WriteString("\n")
		b.WriteString(formatOrgLine(org))
	}
	return b.String()
}

func formatOrgLine(org domain.Organization) string {
	line := "• " + org.Name
	if org.Code != "" {
		line += fmt.Sprintf(" (%s)", org.Code)
	}
	if org.Phone != "" {
		line += " ☎ " + org.Phone
	}
	return line
}

// FormatSubmitted lists deduplicated submissions matching the filter.
func FormatSubmitted(s *domain.Snapshot, phones PhoneBook, region, query string) string {
	records := domain.FilterRecords(s.Records, region, query)
	if len(records) == 0 {
		return "제출된 데이터가 없습니다."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*제출 %d건*", len(records))
	for i, r := range records {
		fmt.Fprintf(&b, "\n%d. %s (%s) 박스 %s, 수량 %s", i+1, r.OrgName, r.Region, Number(r.Boxes), Number(r.Quantity))
		if r.Anomalous() {
			b.WriteString(" ⚠")
		}
		if phone, ok := phones.Lookup(r.OrgName); ok {
			b.WriteString(" ☎ " + phone)
		}
		if r.Timestamp != "" {
			fmt.Fprintf(&b, " _%s_", r.Timestamp)
		}
	}
	return b.String()
}

// FormatAnomalies lists submissions that report boxes with no contents.
func FormatAnomalies(s *domain.Snapshot, phones PhoneBook) string {
	records := s.Anomalies()
	if len(records) == 0 {
		return "수량 확인이 필요한 제출이 없습니다."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*수량 확인 필요 %d건* (박스는 있으나 내용물 수량 0)", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "\n• %s (%s) 박스 %s", r.OrgName, r.Region, Number(r.Boxes))
		if r.ManagerName != "" {
			b.WriteString(", 담당 " + r.ManagerName)
		}
		if phone, ok := phones.Lookup(r.OrgName); ok {
			b.WriteString(" ☎ " + phone)
		}
		if r.Remarks != "" {
			b.WriteString("\n    비고: " + r.Remarks)
		}
	}
	return b.String()
}

// FormatUnmatched lists submitted names that match no roster entry.
func FormatUnmatched(s *domain.Snapshot) string {
	if len(s.UnmatchedNames) == 0 {
		return "모든 제출 기관명이 명단과 일치합니다."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*명단에 없는 기관명 %d건* (별칭 등록이 필요할 수 있습니다)", len(s.UnmatchedNames))
	for _, name := range s.UnmatchedNames {
		b.WriteString("\n• " + name)
	}
	return b.String()
}

// FormatRegionList renders region names on one line.
func FormatRegionList(s *domain.Snapshot) string {
	return "시군: " + strings.Join(s.RegionNames(), ", ")
}

// FormatRegionLabel names a region filter for captions.
func FormatRegionLabel(region string) string {
	if isAll(region) {
		return domain.AllRegions
	}
	return strings.TrimSpace(region)
}

func isAll(region string) bool {
	region = strings.TrimSpace(region)
	return region == "" || region == domain.AllRegions
}
