package classify

import (
	"strings"

	"github.com/cdtdelta/logguard/internal/model"
)

// Built-in Windows accounts that never represent a person at a keyboard.
var systemAccounts = map[string]struct{}{
	"SYSTEM":          {},
	"LOCAL SERVICE":   {},
	"NETWORK SERVICE": {},
	"ANONYMOUS LOGON": {},
}

// Name prefixes of non-human accounts: font driver hosts, desktop window
// managers, and virtual accounts. Machine accounts are caught by the "$"
// suffix check instead.
var systemPrefixes = []string{"NT ", "UMFD-", "DWM-", "WINDOW MANAGER"}

// Logon types that involve a human at a console or remote desktop.
var interactiveLogonTypes = map[string]struct{}{
	"Interactive":       {},
	"RemoteInteractive": {},
	"CachedInteractive": {},
	"Unlock":            {},
}

// IsHumanInteractive reports whether an event represents a person logging
// on, as opposed to service, machine, or system-account activity. Only
// human-interactive logons enter risk scoring and per-user history.
func IsHumanInteractive(e *model.LogEvent) bool {
	user := strings.ToUpper(e.User)
	if user == "" {
		return false
	}
	if _, ok := systemAccounts[user]; ok {
		return false
	}
	if strings.HasSuffix(user, "$") {
		return false
	}
	for _, p := range systemPrefixes {
		if strings.HasPrefix(user, p) {
			return false
		}
	}
	_, ok := interactiveLogonTypes[e.LogonType]
	return ok
}
