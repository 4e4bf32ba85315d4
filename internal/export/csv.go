package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/cdtdelta/logguard/internal/model"
)

// featureHeader is the column set consumed by the anomaly model.
var featureHeader = []string{
	"timestamp", "user", "status", "is_rapid_login",
	"is_business_hours", "risk_score", "logon_type", "source_ip",
}

// WriteSessionLogsCSV writes session-log records to a CSV file, one row per
// event, in model.ExportFields column order.
func WriteSessionLogsCSV(path string, events []*model.LogEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(model.ExportFields); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, e := range events {
		if err := writer.Write(NewRecord(e).row()); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteFeaturesCSV appends the feature projection of the given events to a
// CSV file, creating it with a header on first use. Rows already present
// in the file are not duplicated, so repeated scans over an overlapping
// window keep the training set clean.
func WriteFeaturesCSV(path string, events []*model.LogEvent) error {
	seen, existed, err := readExistingFeatureKeys(path)
	if err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening feature file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if !existed {
		if err := writer.Write(featureHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for _, e := range events {
		row := featureRowFields(Features(e))
		key := featureKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing feature row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// readExistingFeatureKeys loads the dedup keys of rows already in the file.
// Returns existed=false when the file does not exist yet.
func readExistingFeatureKeys(path string) (map[string]bool, bool, error) {
	seen := make(map[string]bool)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return seen, false, nil
		}
		return nil, false, fmt.Errorf("opening feature file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("reading existing features: %w", err)
	}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		seen[featureKey(row)] = true
	}
	return seen, true, nil
}

func featureRowFields(fr FeatureRow) []string {
	return []string{
		fr.Timestamp,
		fr.User,
		fr.Status,
		strconv.FormatBool(fr.IsRapidLogin),
		strconv.FormatBool(fr.IsBusinessHours),
		strconv.FormatFloat(fr.RiskScore, 'f', -1, 64),
		fr.LogonType,
		fr.SourceIP,
	}
}

func featureKey(row []string) string {
	key := ""
	for _, v := range row {
		key += v + "\x1f"
	}
	return key
}
