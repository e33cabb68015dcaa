package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"rosterbot/internal/domain"
)

// Write renders one export kind for the records and organizations that
// pass the region and search filters.
func Write(w io.Writer, kind Kind, snap *domain.Snapshot, region, query string) error {
	records := domain.FilterRecords(snap.Records, region, query)
	unsubmitted := domain.FilterOrganizations(snap.Unsubmitted, region, query)
	switch kind {
	case KindSubmitted:
		return WriteSubmittedCSV(w, records)
	case KindUnsubmitted:
		return WriteUnsubmittedCSV(w, unsubmitted)
	case KindWorkbook:
		return WriteWorkbook(w, snap, records, unsubmitted)
	}
	return fmt.Errorf("unknown export kind %q", kind)
}

// WriteExportFile writes an export into outputDir and returns its path.
func WriteExportFile(outputDir string, kind Kind, snap *domain.Snapshot, region, query string, date time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, kind.FileName(date))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Write(f, kind, snap, region, query); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", kind, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
