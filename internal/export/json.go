package export

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/cdtdelta/logguard/internal/model"
)

// WriteJSON writes session-log records to an indented JSON file.
func WriteJSON(path string, events []*model.LogEvent) error {
	records := make([]Record, 0, len(events))
	for _, e := range events {
		records = append(records, NewRecord(e))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}
	return nil
}

// ReadJSON loads session-log records back from a JSON export.
func ReadJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading json file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}
