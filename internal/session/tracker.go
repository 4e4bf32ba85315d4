// Package session correlates ephemeral logon identifiers across
// asynchronous logon/logoff events and resolves logoffs into durations.
package session

import (
	"fmt"
	"time"

	"github.com/cdtdelta/logguard/internal/timeutil"
)

// Tracker maps open logon session identifiers to their logon times.
// It is owned by a single pipeline run and is not safe for concurrent use.
type Tracker struct {
	open      map[string]time.Time
	conflicts int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{open: make(map[string]time.Time)}
}

// RecordLogon registers an open session. A logon that reuses an already-open
// session identifier overwrites the prior entry; the conflict is counted,
// never fatal. The timestamp must parse to the canonical form.
func (t *Tracker) RecordLogon(sessionID, timestamp string) error {
	logon, err := timeutil.Parse(timestamp)
	if err != nil {
		return fmt.Errorf("recording logon for session %s: %w", sessionID, err)
	}
	if _, ok := t.open[sessionID]; ok {
		t.conflicts++
	}
	t.open[sessionID] = logon
	return nil
}

// RecordLogoff resolves a logoff against its open session. When the session
// is found, the entry is removed and the elapsed seconds are returned. A
// logoff with no open session is an orphan: (nil, nil), a normal outcome
// when the scan window missed the matching logon. An unparsable timestamp
// is the one fatal-per-event condition; defaulting it would corrupt
// duration statistics.
func (t *Tracker) RecordLogoff(sessionID, timestamp string) (*float64, error) {
	logoff, err := timeutil.Parse(timestamp)
	if err != nil {
		return nil, fmt.Errorf("recording logoff for session %s: %w", sessionID, err)
	}

	logon, ok := t.open[sessionID]
	if !ok {
		return nil, nil
	}
	delete(t.open, sessionID)

	duration := logoff.Sub(logon).Seconds()
	return &duration, nil
}

// Open returns the number of currently open sessions.
func (t *Tracker) Open() int {
	return len(t.open)
}

// Conflicts returns how many logons reused an already-open session id.
func (t *Tracker) Conflicts() int {
	return t.conflicts
}
