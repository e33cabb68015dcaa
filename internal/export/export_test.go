package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"rosterbot/internal/aggregate"
	"rosterbot/internal/domain"
)

func testSnapshot() domain.Snapshot {
	orgs := []domain.Organization{
		{Region: "창원시", Code: "C1", Name: "동진노인통합지원센터", Phone: "055-111-1111"},
		{Region: "거제시", Code: "G1", Name: "거제노인통합지원센터", Phone: "055-222-2222"},
		{Region: "김해시", Code: "K1", Name: "김해돌봄지원센터", Phone: "055-444-4444"},
	}
	records := []domain.SurveyRecord{
		{Timestamp: "2025-01-02 10:00", Region: "거제시", OrgName: "거제노인통합지원센터", Boxes: 2, Quantity: 100, Remarks: `쉼표, "따옴표"`},
		{Timestamp: "2025-01-02 11:00", Region: "김해시", OrgName: "김해돌봄지원센터", Boxes: 3, Quantity: 0, ManagerName: "이담당"},
	}
	snap := aggregate.Build(records, orgs)
	snap.GeneratedAt = time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	return snap
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{in: "submitted", want: KindSubmitted},
		{in: " 미제출 ", want: KindUnsubmitted},
		{in: "XLSX", want: KindWorkbook},
		{in: "엑셀", want: KindWorkbook},
		{in: "unsubmitted", want: KindUnsubmitted},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseKind("pdf"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestKindFileName(t *testing.T) {
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	if got := KindSubmitted.FileName(date); got != "제출기관_현황_20250307.csv" {
		t.Fatalf("unexpected submitted name %q", got)
	}
	if got := KindUnsubmitted.FileName(date); got != "미제출기관_명단_20250307.csv" {
		t.Fatalf("unexpected unsubmitted name %q", got)
	}
	if got := KindWorkbook.FileName(date); got != "제출현황_20250307.xlsx" {
		t.Fatalf("unexpected workbook name %q", got)
	}
}

func TestWriteSubmittedCSV(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer
	if err := WriteSubmittedCSV(&buf, snap.Records); err != nil {
		t.Fatalf("WriteSubmittedCSV: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF제출시간,시군,기관명,수령 박스 수,내용물 수량,특이사항\n") {
		t.Fatalf("missing BOM or header: %q", out)
	}

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\uFEFF"))).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	want := [][]string{
		submittedHeader,
		{"2025-01-02 10:00", "거제시", "거제노인통합지원센터", "2", "100", `쉼표, "따옴표"`},
		{"2025-01-02 11:00", "김해시", "김해돌봄지원센터", "3", "0", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("csv rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteUnsubmittedCSV(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer
	if err := WriteUnsubmittedCSV(&buf, snap.Unsubmitted); err != nil {
		t.Fatalf("WriteUnsubmittedCSV: %v", err)
	}
	want := "\uFEFF시군,기관코드,기관명,전화번호\n창원시,C1,동진노인통합지원센터,055-111-1111\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteWorkbook(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer
	if err := Write(&buf, KindWorkbook, &snap, "", ""); err != nil {
		t.Fatalf("Write workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{"제출기관", "미제출기관", "시군별 현황", "요약"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheet list mismatch (-want +got):\n%s", diff)
	}

	rows, err := f.GetRows("제출기관")
	if err != nil {
		t.Fatalf("read submitted sheet: %v", err)
	}
	if len(rows) != 3 || rows[0][6] != "담당자" || rows[2][2] != "김해돌봄지원센터" || rows[2][3] != "3" {
		t.Fatalf("unexpected submitted rows: %q", rows)
	}

	regions, err := f.GetRows("시군별 현황")
	if err != nil {
		t.Fatalf("read region sheet: %v", err)
	}
	if len(regions) != 4 || regions[1][0] != "거제시" || regions[1][3] != "100" {
		t.Fatalf("unexpected region rows: %q", regions)
	}

	for col, want := range map[string]float64{"B": 16, "C": 30, "D": 16} {
		got, err := f.GetColWidth("미제출기관", col)
		if err != nil || got != want {
			t.Fatalf("미제출기관 column %s width = %v, %v; want %v", col, got, err, want)
		}
	}

	summary, err := f.GetRows("요약")
	if err != nil {
		t.Fatalf("read summary sheet: %v", err)
	}
	if summary[2][0] != "제출 기관" || summary[2][1] != "2" {
		t.Fatalf("unexpected summary rows: %q", summary)
	}
}

func TestWriteFiltersByRegion(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer
	if err := Write(&buf, KindSubmitted, &snap, "김해시", ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(buf.String(), "거제노인통합지원센터") || !strings.Contains(buf.String(), "김해돌봄지원센터") {
		t.Fatalf("expected only 김해시 rows, got %q", buf.String())
	}
	if err := Write(&buf, Kind("pdf"), &snap, "", ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestWriteExportFile(t *testing.T) {
	snap := testSnapshot()
	dir := filepath.Join(t.TempDir(), "exports")
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	path, err := WriteExportFile(dir, KindUnsubmitted, &snap, "", "", date)
	if err != nil {
		t.Fatalf("WriteExportFile: %v", err)
	}
	if filepath.Base(path) != "미제출기관_명단_20250102.csv" {
		t.Fatalf("unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\xef\xbb\xbf")) {
		t.Fatal("expected UTF-8 BOM at start of file")
	}
}
