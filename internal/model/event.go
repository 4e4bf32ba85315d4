package model

// Windows Security log event identifiers handled by the classifier.
const (
	EventIDLogon       = 4624
	EventIDFailedLogon = 4625
	EventIDLogoff      = 4634
)

// Status values for authentication outcomes.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// EventKind identifies the canonical class of an authentication event.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindLogon
	KindFailedLogon
	KindLogoff
)

// String returns the canonical name of the event kind.
func (k EventKind) String() string {
	switch k {
	case KindLogon:
		return "Logon"
	case KindFailedLogon:
		return "FailedLogon"
	case KindLogoff:
		return "Logoff"
	default:
		return "Unknown"
	}
}

// ExportType returns the event_type value used in exported records.
// Failed logons export as "Logon" with status "failed", matching the
// session_logs schema.
func (k EventKind) ExportType() string {
	if k == KindLogoff {
		return "Logoff"
	}
	return "Logon"
}

// RawEvent is one opaque record pulled from an event source: an event
// identifier, a timestamp in whatever form the source yields, and the
// ordered string inserts of the underlying log record.
type RawEvent struct {
	EventID   int      `json:"event_id"`
	Timestamp string   `json:"timestamp"`
	Fields    []string `json:"fields"`
	Category  int      `json:"category"`
}

// LogEvent is the canonical, enriched representation of one
// authentication-related occurrence. Timestamps are normalized to UTC at
// second resolution ("2006-01-02 15:04:05") before the event is built.
//
// SessionDuration and FailureReason are nil when absent; an orphan logoff
// legitimately has no duration.
type LogEvent struct {
	Timestamp       string
	Kind            EventKind
	User            string
	Domain          string
	UserSID         string
	SessionID       string
	LogonType       string
	Status          string
	SourceIP        string
	Workstation     string
	FailureReason   *string
	SessionDuration *float64
	RiskFactors     []string
	RiskScore       float64
	DayOfWeek       string
	HourOfDay       int
	IsBusinessHours bool
	EventID         int
	Category        int
}

// ExportFields is the ordered list of column names in the session_logs
// table and in flat CSV exports. Used for query building and field
// validation.
var ExportFields = []string{
	"timestamp", "event_type", "user", "domain", "user_sid",
	"logon_id", "logon_type", "status", "source_ip", "workstation_name",
	"failure_reason", "session_duration", "risk_factors", "risk_score",
	"day_of_week", "hour_of_day", "is_business_hours",
	"event_id", "event_task_category",
}
