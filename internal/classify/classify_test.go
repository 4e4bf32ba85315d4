package classify

import (
	"errors"
	"testing"

	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/timeutil"
)

// logonFields builds a minimal valid 4624 insert list.
func logonFields(user, logonType string) []string {
	return []string{
		"S-1-5-18", "WORKSTATION1", "-", "0x3E7", "S-1-5-21-1004",
		user, "CONTOSO", "%%1842", logonType, "3",
	}
}

func TestClassifyLogon(t *testing.T) {
	raw := model.RawEvent{
		EventID:   model.EventIDLogon,
		Timestamp: "2024-01-01 09:00:00",
		Fields:    logonFields("alice", "2"),
		Category:  12544,
	}

	e, err := Classify(raw)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if e.Kind != model.KindLogon {
		t.Errorf("expected KindLogon, got %v", e.Kind)
	}
	if e.User != "alice" {
		t.Errorf("expected user 'alice', got '%s'", e.User)
	}
	if e.Domain != "CONTOSO" {
		t.Errorf("expected domain 'CONTOSO', got '%s'", e.Domain)
	}
	if e.SessionID != "0x3E7" {
		t.Errorf("expected session id '0x3E7', got '%s'", e.SessionID)
	}
	if e.LogonType != "Interactive" {
		t.Errorf("expected logon type 'Interactive', got '%s'", e.LogonType)
	}
	if e.Status != model.StatusSuccess {
		t.Errorf("expected status success, got '%s'", e.Status)
	}
	if e.Workstation != "WORKSTATION1" {
		t.Errorf("expected workstation 'WORKSTATION1', got '%s'", e.Workstation)
	}
	if e.DayOfWeek != "Monday" {
		t.Errorf("expected day 'Monday', got '%s'", e.DayOfWeek)
	}
	if e.HourOfDay != 9 {
		t.Errorf("expected hour 9, got %d", e.HourOfDay)
	}
	if e.SourceIP != "" {
		t.Errorf("expected empty source ip for short insert list, got '%s'", e.SourceIP)
	}
}

func TestClassifyLogonWithSourceIP(t *testing.T) {
	fields := make([]string, 19)
	copy(fields, logonFields("bob", "10"))
	fields[18] = "10.0.0.5"

	e, err := Classify(model.RawEvent{
		EventID:   model.EventIDLogon,
		Timestamp: "2024-01-01 10:00:00",
		Fields:    fields,
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if e.SourceIP != "10.0.0.5" {
		t.Errorf("expected source ip '10.0.0.5', got '%s'", e.SourceIP)
	}
	if e.LogonType != "RemoteInteractive" {
		t.Errorf("expected 'RemoteInteractive', got '%s'", e.LogonType)
	}
}

func TestClassifyLogonTooFewFields(t *testing.T) {
	_, err := Classify(model.RawEvent{
		EventID:   model.EventIDLogon,
		Timestamp: "2024-01-01 09:00:00",
		Fields:    []string{"a", "b", "c"},
	})
	var me *MalformedEventError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedEventError, got %v", err)
	}
	if me.Got != 3 || me.Want != logonMinFields {
		t.Errorf("unexpected bounds in error: got=%d want=%d", me.Got, me.Want)
	}
}

func TestClassifyFailedLogon(t *testing.T) {
	fields := []string{
		"S-1-0-0", "-", "-", "0x0", "S-1-0-0",
		"mallory", "CONTOSO", "%%2313", "3",
	}
	e, err := Classify(model.RawEvent{
		EventID:   model.EventIDFailedLogon,
		Timestamp: "2024-01-01 03:15:00",
		Fields:    fields,
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if e.Kind != model.KindFailedLogon {
		t.Errorf("expected KindFailedLogon, got %v", e.Kind)
	}
	if e.Status != model.StatusFailed {
		t.Errorf("expected status failed, got '%s'", e.Status)
	}
	if e.FailureReason == nil || *e.FailureReason != "%%2313" {
		t.Errorf("expected failure reason '%%%%2313', got %v", e.FailureReason)
	}
	if e.LogonType != "Network" {
		t.Errorf("expected 'Network', got '%s'", e.LogonType)
	}
}

func TestClassifyLogoff(t *testing.T) {
	e, err := Classify(model.RawEvent{
		EventID:   model.EventIDLogoff,
		Timestamp: "2024-01-01 17:30:00",
		Fields:    []string{"S-1-5-21-1004", "alice", "CONTOSO", "0x51A2"},
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if e.Kind != model.KindLogoff {
		t.Errorf("expected KindLogoff, got %v", e.Kind)
	}
	if e.User != "alice" || e.SessionID != "0x51A2" {
		t.Errorf("unexpected logoff fields: user=%s session=%s", e.User, e.SessionID)
	}
}

func TestClassifyLogoffTooFewFields(t *testing.T) {
	_, err := Classify(model.RawEvent{
		EventID:   model.EventIDLogoff,
		Timestamp: "2024-01-01 17:30:00",
		Fields:    []string{"S-1-5-21-1004", "alice", "CONTOSO"},
	})
	var me *MalformedEventError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedEventError, got %v", err)
	}
}

func TestClassifyUnsupportedEventID(t *testing.T) {
	_, err := Classify(model.RawEvent{
		EventID:   4672,
		Timestamp: "2024-01-01 09:00:00",
		Fields:    logonFields("alice", "2"),
	})
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Errorf("expected ErrUnsupportedEvent, got %v", err)
	}
}

func TestClassifyInvalidTimestamp(t *testing.T) {
	_, err := Classify(model.RawEvent{
		EventID:   model.EventIDLogon,
		Timestamp: "not a time",
		Fields:    logonFields("alice", "2"),
	})
	if !errors.Is(err, timeutil.ErrInvalidTimestamp) {
		t.Errorf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestLogonTypeDescriptionUnknownCode(t *testing.T) {
	if got := LogonTypeDescription("13"); got != "Unknown" {
		t.Errorf("expected 'Unknown' for code 13, got '%s'", got)
	}
	if got := LogonTypeDescription("7"); got != "Unlock" {
		t.Errorf("expected 'Unlock' for code 7, got '%s'", got)
	}
}

func TestIsHumanInteractive(t *testing.T) {
	cases := []struct {
		name      string
		user      string
		logonType string
		want      bool
	}{
		{"regular interactive user", "alice", "Interactive", true},
		{"remote desktop user", "bob", "RemoteInteractive", true},
		{"unlock", "carol", "Unlock", true},
		{"system account", "SYSTEM", "Interactive", false},
		{"local service", "LOCAL SERVICE", "Service", false},
		{"network service", "NETWORK SERVICE", "Service", false},
		{"anonymous", "ANONYMOUS LOGON", "Network", false},
		{"machine account", "WIN-PC$", "Network", false},
		{"font driver host", "UMFD-1", "Interactive", false},
		{"window manager", "DWM-2", "Interactive", false},
		{"nt authority prefix", "NT AUTHORITY", "Interactive", false},
		{"network logon type", "alice", "Network", false},
		{"service logon type", "alice", "Service", false},
		{"unknown logon type", "alice", "Unknown", false},
		{"empty user", "", "Interactive", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &model.LogEvent{User: tc.user, LogonType: tc.logonType}
			if got := IsHumanInteractive(e); got != tc.want {
				t.Errorf("IsHumanInteractive(%q, %q) = %v, want %v",
					tc.user, tc.logonType, got, tc.want)
			}
		})
	}
}
