package database

import (
	"path/filepath"
	"testing"

	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/query"
)

func createTestStore(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenStore("sqlite", path)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleLogon(user, ts string, score float64) *model.LogEvent {
	return &model.LogEvent{
		Timestamp:       ts,
		Kind:            model.KindLogon,
		User:            user,
		Domain:          "CONTOSO",
		UserSID:         "S-1-5-21-1004",
		SessionID:       "0x51A2",
		LogonType:       "Interactive",
		Status:          model.StatusSuccess,
		Workstation:     "WORKSTATION1",
		RiskFactors:     []string{"outside_business_hours"},
		RiskScore:       score,
		DayOfWeek:       "Monday",
		HourOfDay:       9,
		IsBusinessHours: true,
		EventID:         model.EventIDLogon,
		Category:        12544,
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := OpenStore("oracle", "x"); err == nil {
		t.Error("expected error for unsupported driver, got nil")
	}
}

func TestInsertAndCount(t *testing.T) {
	db := createTestStore(t)

	events := []*model.LogEvent{
		sampleLogon("alice", "2024-01-01 09:00:00", 1),
		sampleLogon("bob", "2024-01-01 10:00:00", 3),
	}
	n, err := db.InsertSessionLogs(events, nil)
	if err != nil {
		t.Fatalf("InsertSessionLogs failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 inserted, got %d", n)
	}

	count, err := db.CountSessionLogs()
	if err != nil {
		t.Fatalf("CountSessionLogs failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestQuerySessionLogs(t *testing.T) {
	db := createTestStore(t)

	failed := sampleLogon("mallory", "2024-01-01 03:00:00", 3)
	failed.Kind = model.KindFailedLogon
	failed.Status = model.StatusFailed
	reason := "%%2313"
	failed.FailureReason = &reason

	if _, err := db.InsertSessionLogs([]*model.LogEvent{
		sampleLogon("alice", "2024-01-01 09:00:00", 1),
		failed,
	}, nil); err != nil {
		t.Fatalf("InsertSessionLogs failed: %v", err)
	}

	records, err := db.QuerySessionLogs(
		query.Simple("status", query.Equal, "failed"), "timestamp", 0)
	if err != nil {
		t.Fatalf("QuerySessionLogs failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 failed record, got %d", len(records))
	}
	r := records[0]
	if r.User != "mallory" {
		t.Errorf("expected user 'mallory', got '%s'", r.User)
	}
	if r.FailureReason == nil || *r.FailureReason != "%%2313" {
		t.Errorf("unexpected failure reason: %v", r.FailureReason)
	}
	if r.SessionDuration != nil {
		t.Errorf("expected nil session duration, got %v", *r.SessionDuration)
	}
	if len(r.RiskFactors) != 1 || r.RiskFactors[0] != "outside_business_hours" {
		t.Errorf("unexpected risk factors: %v", r.RiskFactors)
	}
}

func TestQuerySessionLogsNilPredicate(t *testing.T) {
	db := createTestStore(t)
	if _, err := db.InsertSessionLogs([]*model.LogEvent{
		sampleLogon("alice", "2024-01-01 09:00:00", 1),
	}, nil); err != nil {
		t.Fatalf("InsertSessionLogs failed: %v", err)
	}

	records, err := db.QuerySessionLogs(nil, "", 0)
	if err != nil {
		t.Fatalf("QuerySessionLogs failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}

func TestQuerySessionLogsInvalidOrderColumn(t *testing.T) {
	db := createTestStore(t)
	if _, err := db.QuerySessionLogs(nil, "password; DROP TABLE", 0); err == nil {
		t.Error("expected error for invalid order column, got nil")
	}
}

func TestQueryFeatures(t *testing.T) {
	db := createTestStore(t)

	rapid := sampleLogon("bob", "2024-01-01 10:00:45", 3)
	rapid.RiskFactors = []string{"rapid_login_attempts"}
	logoff := &model.LogEvent{
		Timestamp: "2024-01-01 17:00:00",
		Kind:      model.KindLogoff,
		User:      "bob",
		Status:    model.StatusSuccess,
		EventID:   model.EventIDLogoff,
	}

	if _, err := db.InsertSessionLogs([]*model.LogEvent{rapid, logoff}, nil); err != nil {
		t.Fatalf("InsertSessionLogs failed: %v", err)
	}

	features, err := db.QueryFeatures()
	if err != nil {
		t.Fatalf("QueryFeatures failed: %v", err)
	}
	// Logoffs are not model features.
	if len(features) != 1 {
		t.Fatalf("expected 1 feature row, got %d", len(features))
	}
	if !features[0].IsRapidLogin {
		t.Error("expected is_rapid_login true")
	}
	if features[0].User != "bob" {
		t.Errorf("expected user 'bob', got '%s'", features[0].User)
	}
}

func TestRiskDistribution(t *testing.T) {
	db := createTestStore(t)

	if _, err := db.InsertSessionLogs([]*model.LogEvent{
		sampleLogon("alice", "2024-01-01 09:00:00", 1),
		sampleLogon("bob", "2024-01-01 10:00:00", 1),
		sampleLogon("carol", "2024-01-01 11:00:00", 4),
	}, nil); err != nil {
		t.Fatalf("InsertSessionLogs failed: %v", err)
	}

	dist, err := db.RiskDistribution()
	if err != nil {
		t.Fatalf("RiskDistribution failed: %v", err)
	}
	if dist[1] != 2 || dist[4] != 1 {
		t.Errorf("unexpected distribution: %v", dist)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenStore("sqlite", path)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := db.InsertSessionLogs([]*model.LogEvent{
		sampleLogon("alice", "2024-01-01 09:00:00", 1),
	}, nil); err != nil {
		t.Fatalf("InsertSessionLogs failed: %v", err)
	}
	db.Close()

	db2, err := OpenStore("sqlite", path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	count, err := db2.CountSessionLogs()
	if err != nil {
		t.Fatalf("CountSessionLogs failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record after reopen, got %d", count)
	}
}
