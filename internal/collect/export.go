package collect

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bewerbungsagent/internal/scraper"
)

// ExportJSON writes the batch as a dated JSON file under dir and returns
// the file path.
func ExportJSON(rows []scraper.Posting, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("job-search-%s.json", now.Format("2006-01-02")))

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding postings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ExportCSV writes the batch as a dated CSV file under dir and returns
// the file path.
func ExportCSV(rows []scraper.Posting, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("job-search-%s.csv", now.Format("2006-01-02")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"title", "company", "location", "source", "link", "date", "score", "match", "commute_min"}); err != nil {
		return "", err
	}
	for _, row := range rows {
		commute := ""
		if row.CommuteMin != nil {
			commute = strconv.Itoa(*row.CommuteMin)
		}
		record := []string{
			row.Title, row.Company, row.Location, row.Source, row.Link,
			row.Date, strconv.Itoa(row.Score), row.Match, commute,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}
