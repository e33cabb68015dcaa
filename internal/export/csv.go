package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"rosterbot/internal/domain"
)

// Excel reads UTF-8 CSV only when it starts with a BOM.
const utf8BOM = "\uFEFF"

var (
	submittedHeader   = []string{"제출시간", "시군", "기관명", "수령 박스 수", "내용물 수량", "특이사항"}
	unsubmittedHeader = []string{"시군", "기관코드", "기관명", "전화번호"}
)

func WriteSubmittedCSV(w io.Writer, records []domain.SurveyRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Timestamp,
			r.Region,
			r.OrgName,
			strconv.Itoa(r.Boxes),
			strconv.Itoa(r.Quantity),
			r.Remarks,
		})
	}
	return writeCSV(w, submittedHeader, rows)
}

func WriteUnsubmittedCSV(w io.Writer, orgs []domain.Organization) error {
	rows := make([][]string, 0, len(orgs))
	for _, o := range orgs {
		rows = append(rows, []string{o.Region, o.Code, o.Name, o.Phone})
	}
	return writeCSV(w, unsubmittedHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
