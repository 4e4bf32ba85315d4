// Package classify turns raw Security-log records into canonical LogEvents.
// Each supported event kind has a positional-field schema with an explicit
// minimum field count; a record that falls short yields a MalformedEventError
// instead of an out-of-range fault.
package classify

import (
	"errors"
	"fmt"

	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/timeutil"
)

// ErrUnsupportedEvent reports an event identifier outside the handled set
// (4624, 4625, 4634). Callers skip these records.
var ErrUnsupportedEvent = errors.New("unsupported event identifier")

// MalformedEventError reports a raw event with fewer string inserts than its
// schema requires. Recoverable: the caller counts and drops the record.
type MalformedEventError struct {
	EventID int
	Got     int
	Want    int
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event %d: %d fields, need at least %d",
		e.EventID, e.Got, e.Want)
}

// Minimum string-insert counts per event schema. Field indices follow the
// Windows 4624/4625/4634 insert layout.
const (
	logonMinFields       = 10
	failedLogonMinFields = 9
	logoffMinFields      = 4
)

// logonTypes maps Windows logon type codes to their descriptions.
var logonTypes = map[string]string{
	"2":  "Interactive",
	"3":  "Network",
	"4":  "Batch",
	"5":  "Service",
	"7":  "Unlock",
	"8":  "NetworkCleartext",
	"9":  "NewCredentials",
	"10": "RemoteInteractive",
	"11": "CachedInteractive",
}

// LogonTypeDescription resolves a logon type code to its description.
// Unknown codes resolve to "Unknown" rather than failing classification.
func LogonTypeDescription(code string) string {
	if desc, ok := logonTypes[code]; ok {
		return desc
	}
	return "Unknown"
}

// Classify builds a canonical LogEvent from one raw record. The timestamp is
// normalized to canonical UTC form first; failures return
// timeutil.ErrInvalidTimestamp. Schema violations return a
// *MalformedEventError and unknown event IDs return ErrUnsupportedEvent.
func Classify(raw model.RawEvent) (*model.LogEvent, error) {
	ts, err := timeutil.Parse(raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", raw.EventID, err)
	}

	e := &model.LogEvent{
		Timestamp: timeutil.Format(ts),
		Status:    model.StatusSuccess,
		DayOfWeek: ts.Weekday().String(),
		HourOfDay: ts.Hour(),
		EventID:   raw.EventID,
		Category:  raw.Category,
	}

	switch raw.EventID {
	case model.EventIDLogon:
		return decodeLogon(raw, e)
	case model.EventIDFailedLogon:
		return decodeFailedLogon(raw, e)
	case model.EventIDLogoff:
		return decodeLogoff(raw, e)
	default:
		return nil, ErrUnsupportedEvent
	}
}

// decodeLogon handles successful logons (4624):
// 1=workstation, 3=logon_id, 4=user_sid, 5=user, 6=domain, 8=logon_type,
// 18=source_ip (optional).
func decodeLogon(raw model.RawEvent, e *model.LogEvent) (*model.LogEvent, error) {
	if len(raw.Fields) < logonMinFields {
		return nil, &MalformedEventError{raw.EventID, len(raw.Fields), logonMinFields}
	}
	e.Kind = model.KindLogon
	e.Workstation = raw.Fields[1]
	e.SessionID = raw.Fields[3]
	e.UserSID = raw.Fields[4]
	e.User = raw.Fields[5]
	e.Domain = raw.Fields[6]
	e.LogonType = LogonTypeDescription(raw.Fields[8])
	e.SourceIP = fieldAt(raw.Fields, 18)
	return e, nil
}

// decodeFailedLogon handles failed logons (4625):
// 3=logon_id, 4=user_sid, 5=user, 6=domain, 7=failure_reason,
// 8=logon_type, 19=source_ip (optional).
func decodeFailedLogon(raw model.RawEvent, e *model.LogEvent) (*model.LogEvent, error) {
	if len(raw.Fields) < failedLogonMinFields {
		return nil, &MalformedEventError{raw.EventID, len(raw.Fields), failedLogonMinFields}
	}
	e.Kind = model.KindFailedLogon
	e.Status = model.StatusFailed
	e.SessionID = raw.Fields[3]
	e.UserSID = raw.Fields[4]
	e.User = raw.Fields[5]
	e.Domain = raw.Fields[6]
	if reason := raw.Fields[7]; reason != "" {
		e.FailureReason = &reason
	}
	e.LogonType = LogonTypeDescription(raw.Fields[8])
	e.SourceIP = fieldAt(raw.Fields, 19)
	return e, nil
}

// decodeLogoff handles logoffs (4634): 1=user, 2=domain, 3=logon_id.
func decodeLogoff(raw model.RawEvent, e *model.LogEvent) (*model.LogEvent, error) {
	if len(raw.Fields) < logoffMinFields {
		return nil, &MalformedEventError{raw.EventID, len(raw.Fields), logoffMinFields}
	}
	e.Kind = model.KindLogoff
	e.User = raw.Fields[1]
	e.Domain = raw.Fields[2]
	e.SessionID = raw.Fields[3]
	return e, nil
}

// fieldAt returns the value at index i, or empty string if out of bounds.
func fieldAt(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
