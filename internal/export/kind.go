package export

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindSubmitted   Kind = "submitted"
	KindUnsubmitted Kind = "unsubmitted"
	KindWorkbook    Kind = "xlsx"
)

// ParseKind accepts the English kind names plus a few Korean and
// spreadsheet synonyms used in Slack commands.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "submitted", "제출", "제출기관":
		return KindSubmitted, nil
	case "unsubmitted", "미제출", "미제출기관":
		return KindUnsubmitted, nil
	case "xlsx", "excel", "엑셀", "workbook":
		return KindWorkbook, nil
	}
	return "", fmt.Errorf("unknown export kind %q (submitted, unsubmitted, xlsx)", s)
}

// FileName is the download name for an export made on date.
func (k Kind) FileName(date time.Time) string {
	stamp := date.Format("20060102")
	switch k {
	case KindSubmitted:
		return fmt.Sprintf("제출기관_현황_%s.csv", stamp)
	case KindUnsubmitted:
		return fmt.Sprintf("미제출기관_명단_%s.csv", stamp)
	default:
		return fmt.Sprintf("제출현황_%s.xlsx", stamp)
	}
}

func (k Kind) ContentType() string {
	if k == KindWorkbook {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
