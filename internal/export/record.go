// Package export serializes scan results for downstream consumers: flat
// session-log records as CSV or JSON, and the reduced feature projection
// consumed by the anomaly model.
package export

import (
	"strconv"
	"strings"

	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/risk"
)

// Record is the flat key/value form of one session-log entry. Optional
// fields stay nullable instead of collapsing to sentinel empty values.
type Record struct {
	Timestamp       string   `json:"timestamp"`
	EventType       string   `json:"event_type"`
	User            string   `json:"user"`
	Domain          string   `json:"domain"`
	UserSID         string   `json:"user_sid"`
	LogonID         string   `json:"logon_id"`
	LogonType       string   `json:"logon_type"`
	Status          string   `json:"status"`
	SourceIP        string   `json:"source_ip"`
	Workstation     string   `json:"workstation_name"`
	FailureReason   *string  `json:"failure_reason"`
	SessionDuration *float64 `json:"session_duration"`
	RiskFactors     []string `json:"risk_factors"`
	RiskScore       float64  `json:"risk_score"`
	DayOfWeek       string   `json:"day_of_week"`
	HourOfDay       int      `json:"hour_of_day"`
	IsBusinessHours bool     `json:"is_business_hours"`
	EventID         int      `json:"event_id"`
	EventCategory   int      `json:"event_task_category"`
}

// NewRecord flattens a canonical event for export.
func NewRecord(e *model.LogEvent) Record {
	return Record{
		Timestamp:       e.Timestamp,
		EventType:       e.Kind.ExportType(),
		User:            e.User,
		Domain:          e.Domain,
		UserSID:         e.UserSID,
		LogonID:         e.SessionID,
		LogonType:       e.LogonType,
		Status:          e.Status,
		SourceIP:        e.SourceIP,
		Workstation:     e.Workstation,
		FailureReason:   e.FailureReason,
		SessionDuration: e.SessionDuration,
		RiskFactors:     e.RiskFactors,
		RiskScore:       e.RiskScore,
		DayOfWeek:       e.DayOfWeek,
		HourOfDay:       e.HourOfDay,
		IsBusinessHours: e.IsBusinessHours,
		EventID:         e.EventID,
		EventCategory:   e.Category,
	}
}

// row renders the record as CSV fields in model.ExportFields order.
func (r Record) row() []string {
	duration := ""
	if r.SessionDuration != nil {
		duration = strconv.FormatFloat(*r.SessionDuration, 'f', -1, 64)
	}
	reason := ""
	if r.FailureReason != nil {
		reason = *r.FailureReason
	}
	return []string{
		r.Timestamp,
		r.EventType,
		r.User,
		r.Domain,
		r.UserSID,
		r.LogonID,
		r.LogonType,
		r.Status,
		r.SourceIP,
		r.Workstation,
		reason,
		duration,
		strings.Join(r.RiskFactors, ","),
		strconv.FormatFloat(r.RiskScore, 'f', -1, 64),
		r.DayOfWeek,
		strconv.Itoa(r.HourOfDay),
		strconv.FormatBool(r.IsBusinessHours),
		strconv.Itoa(r.EventID),
		strconv.Itoa(r.EventCategory),
	}
}

// FeatureRow is the reduced projection of a scored logon record fed to the
// anomaly-detection model.
type FeatureRow struct {
	Timestamp       string  `json:"timestamp"`
	User            string  `json:"user"`
	Status          string  `json:"status"`
	IsRapidLogin    bool    `json:"is_rapid_login"`
	IsBusinessHours bool    `json:"is_business_hours"`
	RiskScore       float64 `json:"risk_score"`
	LogonType       string  `json:"logon_type"`
	SourceIP        string  `json:"source_ip"`
}

// Features projects a scored event into its model features.
func Features(e *model.LogEvent) FeatureRow {
	rapid := false
	for _, f := range e.RiskFactors {
		if f == risk.FactorRapidLoginAttempts {
			rapid = true
			break
		}
	}
	return FeatureRow{
		Timestamp:       e.Timestamp,
		User:            e.User,
		Status:          e.Status,
		IsRapidLogin:    rapid,
		IsBusinessHours: e.IsBusinessHours,
		RiskScore:       e.RiskScore,
		LogonType:       e.LogonType,
		SourceIP:        e.SourceIP,
	}
}
