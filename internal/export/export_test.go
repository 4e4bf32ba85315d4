package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/risk"
)

func sampleLogon() *model.LogEvent {
	d := 330.0
	return &model.LogEvent{
		Timestamp:       "2024-01-01 09:00:00",
		Kind:            model.KindLogon,
		User:            "alice",
		Domain:          "CONTOSO",
		UserSID:         "S-1-5-21-1004",
		SessionID:       "0x51A2",
		LogonType:       "Interactive",
		Status:          model.StatusSuccess,
		SourceIP:        "10.0.0.5",
		Workstation:     "WORKSTATION1",
		SessionDuration: &d,
		RiskFactors:     []string{risk.FactorOutsideBusinessHours, risk.FactorRapidLoginAttempts},
		RiskScore:       4,
		DayOfWeek:       "Monday",
		HourOfDay:       9,
		IsBusinessHours: true,
		EventID:         model.EventIDLogon,
		Category:        12544,
	}
}

func TestWriteSessionLogsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	orphan := &model.LogEvent{
		Timestamp: "2024-01-01 12:00:00",
		Kind:      model.KindLogoff,
		User:      "bob",
		SessionID: "0xDEAD",
		Status:    model.StatusSuccess,
		EventID:   model.EventIDLogoff,
	}

	if err := WriteSessionLogsCSV(path, []*model.LogEvent{sampleLogon(), orphan}); err != nil {
		t.Fatalf("WriteSessionLogsCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if len(rows[0]) != len(model.ExportFields) {
		t.Errorf("expected %d header columns, got %d", len(model.ExportFields), len(rows[0]))
	}

	logon := rows[1]
	if logon[0] != "2024-01-01 09:00:00" || logon[1] != "Logon" || logon[2] != "alice" {
		t.Errorf("unexpected logon row prefix: %v", logon[:3])
	}
	if logon[11] != "330" {
		t.Errorf("expected session_duration '330', got '%s'", logon[11])
	}
	if logon[12] != "outside_business_hours,rapid_login_attempts" {
		t.Errorf("unexpected risk_factors cell: '%s'", logon[12])
	}

	logoff := rows[2]
	if logoff[1] != "Logoff" {
		t.Errorf("expected event_type 'Logoff', got '%s'", logoff[1])
	}
	if logoff[11] != "" {
		t.Errorf("expected empty session_duration for orphan logoff, got '%s'", logoff[11])
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	e := sampleLogon()

	if err := WriteJSON(path, []*model.LogEvent{e}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	records, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.User != "alice" || r.EventType != "Logon" {
		t.Errorf("unexpected record identity: %s/%s", r.User, r.EventType)
	}
	if r.SessionDuration == nil || *r.SessionDuration != 330.0 {
		t.Errorf("expected session duration 330.0, got %v", r.SessionDuration)
	}
	if r.FailureReason != nil {
		t.Errorf("expected nil failure reason, got %v", *r.FailureReason)
	}
	if r.RiskScore != 4 {
		t.Errorf("expected risk score 4, got %v", r.RiskScore)
	}
}

func TestFeaturesProjection(t *testing.T) {
	e := sampleLogon()
	fr := Features(e)

	if !fr.IsRapidLogin {
		t.Error("expected is_rapid_login true when factor present")
	}
	if fr.RiskScore != 4 || fr.LogonType != "Interactive" || fr.SourceIP != "10.0.0.5" {
		t.Errorf("unexpected projection: %+v", fr)
	}

	e.RiskFactors = nil
	if Features(e).IsRapidLogin {
		t.Error("expected is_rapid_login false without factor")
	}
}

func TestWriteFeaturesCSVDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	events := []*model.LogEvent{sampleLogon()}

	if err := WriteFeaturesCSV(path, events); err != nil {
		t.Fatalf("first WriteFeaturesCSV failed: %v", err)
	}
	// Second write of the same event must not duplicate the row.
	if err := WriteFeaturesCSV(path, events); err != nil {
		t.Fatalf("second WriteFeaturesCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row after dedup, got %d rows", len(rows))
	}
	if rows[1][3] != "true" {
		t.Errorf("expected is_rapid_login 'true', got '%s'", rows[1][3])
	}
}
