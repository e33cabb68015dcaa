package sheet

import (
	"strings"
	"testing"
)

func TestSplitLineQuotedFields(t *testing.T) {
	got := SplitLine(`"a, b","c""d",e`, ',')
	want := []string{"a, b", `c"d`, "e"}
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitLineTrimsAndKeepsEmptyFields(t *testing.T) {
	got := SplitLine(" a ,, c ,", ',')
	want := []string{"a", "", "c", ""}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("SplitLine = %q, want %q", got, want)
	}
}

func TestSplitLineCustomDelimiter(t *testing.T) {
	got := SplitLine("x\t\"y\tz\"\tw", '\t')
	if len(got) != 3 || got[1] != "y\tz" {
		t.Fatalf("unexpected tab split: %q", got)
	}
}

func TestSplitLineKeepsInvalidUTF8Bytes(t *testing.T) {
	bad := "a\xffb"
	got := SplitLine(bad+`,"x\xfe, y",기관`, ',')
	if len(got) != 3 || got[0] != bad || got[1] != "x\xfe, y" || got[2] != "기관" {
		t.Fatalf("expected raw bytes to pass through, got %q", got)
	}
}

func TestSplitLineMultiByteDelimiter(t *testing.T) {
	got := SplitLine("가·\"나·다\"·라", '·')
	if len(got) != 3 || got[1] != "나·다" || got[2] != "라" {
		t.Fatalf("unexpected split on multi-byte delimiter: %q", got)
	}
}

func TestFieldsAtMissingTrailing(t *testing.T) {
	f := SplitLine("a,b", ',')
	if f.At(1) != "b" || f.At(5) != "" || f.At(-1) != "" {
		t.Fatalf("unexpected At results for %q", f)
	}
}

// minimal layout: ts, region, name, boxes, qty, remarks, manager
func testSchema() Schema {
	return Schema{
		Timestamp:   0,
		Region:      1,
		OrgName:     2,
		Boxes:       3,
		Quantity:    4,
		Remarks:     5,
		ManagerName: 6,
		Delimiter:   ',',
	}
}

func TestParserParse(t *testing.T) {
	text := strings.Join([]string{
		"",
		"타임스탬프,시군,기관명,박스,수량,비고,담당자",
		"2025-01-02 10:00,김해시,김해돌봄지원센터,8박스,\"1,021개\",없음,홍길동",
		"   ",
		"2025-01-02 11:00,진주시,  ,3,10,,",
		"2025-01-02 12:00,사천시,사천건양주간보호센터,2,총 30개,\"비고, 쉼표\"",
		"",
	}, "\n")

	p := NewParser(testSchema(), map[string]string{"사천건양주간보호센터": "사천건양주야간보호센터"})
	got := p.Parse(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.OrgName != "김해돌봄지원센터" || first.Boxes != 8 || first.Quantity != 1021 ||
		first.Region != "김해시" || first.Remarks != "없음" || first.ManagerName != "홍길동" {
		t.Fatalf("unexpected first record: %+v", first)
	}

	second := got[1]
	if second.OrgName != "사천건양주야간보호센터" {
		t.Fatalf("expected alias substitution, got %q", second.OrgName)
	}
	if second.Quantity != 30 || second.Remarks != "비고, 쉼표" {
		t.Fatalf("unexpected second record: %+v", second)
	}
	if second.ManagerName != "" {
		t.Fatalf("expected empty default for missing trailing field, got %q", second.ManagerName)
	}
}

func TestParserHeaderIsNeverData(t *testing.T) {
	text := "a,b,헤더기관,1,1\nx,y,실제기관,2,2\n"
	got := NewParser(testSchema(), nil).Parse(text)
	if len(got) != 1 || got[0].OrgName != "실제기관" {
		t.Fatalf("expected only the data row, got %+v", got)
	}
}

func TestParserHeaderOnlyAndEmpty(t *testing.T) {
	p := NewParser(testSchema(), nil)
	if got := p.Parse(""); len(got) != 0 {
		t.Fatalf("expected no records for empty text, got %d", len(got))
	}
	if got := p.Parse("\n\nh1,h2,h3\n\n"); len(got) != 0 {
		t.Fatalf("expected no records for header-only text, got %d", len(got))
	}
}

func TestParserCRLFInput(t *testing.T) {
	text := "h\r\nts,r,기관,1,2,비고,담당\r\n"
	got := NewParser(testSchema(), nil).Parse(text)
	if len(got) != 1 || got[0].ManagerName != "담당" {
		t.Fatalf("expected trailing CR to be trimmed, got %+v", got)
	}
}

func TestParserAliasToBlankDropsRow(t *testing.T) {
	// an alias never maps to blank; a blank canonical value is ignored
	p := NewParser(testSchema(), map[string]string{"테스트": ""})
	got := p.Parse("h\nts,r,테스트,1,1\n")
	if len(got) != 1 || got[0].OrgName != "테스트" {
		t.Fatalf("expected raw name to pass through, got %+v", got)
	}
}

func TestParserMissingColumns(t *testing.T) {
	schema := testSchema()
	schema.Remarks = -1
	schema.ManagerName = -1
	got := NewParser(schema, nil).Parse("h\nts,r,기관,1,2,비고,담당\n")
	if len(got) != 1 || got[0].Remarks != "" || got[0].ManagerName != "" {
		t.Fatalf("expected absent columns to be empty, got %+v", got)
	}
}

func TestDefaultSchemaPositions(t *testing.T) {
	cols := make([]string, 26)
	cols[0] = "2025. 1. 2 오전 10:00:00"
	cols[1] = "창원시"
	cols[20] = "동진노인통합지원센터"
	cols[21] = "3"
	cols[22] = "300개"
	cols[23] = "특이사항"
	cols[25] = "김담당"
	text := "header\n" + strings.Join(cols, ",")

	got := NewParser(DefaultSchema(), nil).Parse(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	r := got[0]
	if r.Region != "창원시" || r.OrgName != "동진노인통합지원센터" || r.Boxes != 3 ||
		r.Quantity != 300 || r.Remarks != "특이사항" || r.ManagerName != "김담당" {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestHeader(t *testing.T) {
	got := Header("\n타임스탬프,\"소속, 시군\",기관명\nrow", 0)
	if len(got) != 3 || got[1] != "소속, 시군" {
		t.Fatalf("unexpected header: %q", got)
	}
	if Header("  \n", ',') != nil {
		t.Fatal("expected nil header for blank text")
	}
}
