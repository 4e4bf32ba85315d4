// Package source provides raw-event sources for the pipeline. The JSONL
// file source stands in for a live event-log reader: one raw event per
// line, delivered in batches in whatever order the file was written
// (typically newest first, matching a backwards log read).
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/cdtdelta/logguard/internal/model"
)

// DefaultBatchSize is how many events one Next call yields at most.
const DefaultBatchSize = 512

// FileSource reads raw events from a JSONL file and implements
// pipeline.Source. Lines that are not valid JSON are skipped and counted,
// not fatal; a scanner failure surfaces as a recoverable read error.
type FileSource struct {
	f         *os.File
	scanner   *bufio.Scanner
	batchSize int
	skipped   int
	line      int
}

// Open opens a JSONL event file. batchSize <= 0 selects DefaultBatchSize.
func Open(path string, batchSize int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening event file: %w", err)
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	scanner := bufio.NewScanner(f)
	// Some event records carry very long insert strings.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &FileSource{
		f:         f,
		scanner:   scanner,
		batchSize: batchSize,
	}, nil
}

// Next returns the next batch of raw events, io.EOF at end of file, or a
// read error if the underlying scan failed.
func (s *FileSource) Next() ([]model.RawEvent, error) {
	batch := make([]model.RawEvent, 0, s.batchSize)

	for len(batch) < s.batchSize && s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var raw model.RawEvent
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			s.skipped++
			continue
		}
		batch = append(batch, raw)
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading events at line %d: %w", s.line, err)
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Skipped returns how many lines failed to decode and were dropped.
func (s *FileSource) Skipped() int {
	return s.skipped
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}
