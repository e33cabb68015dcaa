package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rosterbot/internal/aggregate"
	"rosterbot/internal/domain"
)

const (
	sheetSubmitted   = "제출기관"
	sheetUnsubmitted = "미제출기관"
	sheetRegions     = "시군별 현황"
	sheetSummary     = "요약"
)

// WriteWorkbook writes the filtered submitted and unsubmitted lists plus
// the region table and headline numbers as one xlsx workbook. Anomalous
// submissions are highlighted.
func WriteWorkbook(w io.Writer, snap *domain.Snapshot, records []domain.SurveyRecord, unsubmitted []domain.Organization) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSubmitted); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetUnsubmitted, sheetRegions, sheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	anomalyStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FEE2E2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("anomaly style: %w", err)
	}

	submitted := [][]interface{}{append(toRow(submittedHeader), "담당자")}
	for _, r := range records {
		submitted = append(submitted, []interface{}{r.Timestamp, r.Region, r.OrgName, r.Boxes, r.Quantity, r.Remarks, r.ManagerName})
	}
	if err := writeRows(f, sheetSubmitted, submitted, headerStyle); err != nil {
		return err
	}
	for i, r := range records {
		if !r.Anomalous() {
			continue
		}
		if err := f.SetRowStyle(sheetSubmitted, i+2, i+2, anomalyStyle); err != nil {
			return fmt.Errorf("highlight row: %w", err)
		}
	}

	missing := [][]interface{}{toRow(unsubmittedHeader)}
	for _, o := range unsubmitted {
		missing = append(missing, []interface{}{o.Region, o.Code, o.Name, o.Phone})
	}
	if err := writeRows(f, sheetUnsubmitted, missing, headerStyle); err != nil {
		return err
	}

	regions := [][]interface{}{{"시군", "제출", "전체", "제출률(%)", "수령 박스 수", "내용물 수량"}}
	for _, st := range snap.RegionStats {
		regions = append(regions, []interface{}{st.Region, st.Submitted, st.Total, aggregate.Rate(st.Submitted, st.Total), st.Boxes, st.Quantity})
	}
	if err := writeRows(f, sheetRegions, regions, headerStyle); err != nil {
		return err
	}

	summary := [][]interface{}{
		{"항목", "값"},
		{"전체 기관", snap.TotalOrgs},
		{"제출 기관", snap.SubmittedCount},
		{"미제출 기관", snap.UnsubmittedCount()},
		{"제출률(%)", snap.SubmissionRate},
		{"수령 박스 수", snap.TotalBoxes},
		{"내용물 수량", snap.TotalQuantity},
		{"수량 확인 필요", len(snap.Anomalies())},
		{"명단 불일치", len(snap.UnmatchedNames)},
	}
	if !snap.GeneratedAt.IsZero() {
		summary = append(summary, []interface{}{"기준 시각", snap.GeneratedAt.Format("2006-01-02 15:04")})
	}
	if err := writeRows(f, sheetSummary, summary, headerStyle); err != nil {
		return err
	}

	widths := []struct {
		sheet, from, to string
		width           float64
	}{
		{sheetSubmitted, "A", "A", 22},
		{sheetSubmitted, "C", "C", 30},
		{sheetSubmitted, "F", "F", 30},
		{sheetUnsubmitted, "B", "B", 16},
		{sheetUnsubmitted, "C", "C", 30},
		{sheetUnsubmitted, "D", "D", 16},
		{sheetSummary, "A", "A", 16},
	}
	for _, cw := range widths {
		if err := f.SetColWidth(cw.sheet, cw.from, cw.to, cw.width); err != nil {
			return fmt.Errorf("set column width %s!%s:%s: %w", cw.sheet, cw.from, cw.to, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
