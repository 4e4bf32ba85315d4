// Package risk scores authentication events against a set of independent
// boolean risk factors. The score on a record is always the sum of the
// configured weights for exactly the factors present; there are no hidden
// contributions.
package risk

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/timeutil"
)

// Risk factor tags, in fixed evaluation order.
const (
	FactorOutsideBusinessHours = "outside_business_hours"
	FactorRapidLoginAttempts   = "rapid_login_attempts"
	FactorMultipleFailedLogins = "multiple_failed_logins"
	FactorRemoteLogin          = "remote_login"
)

// MinRapidWindow is the smallest allowed rapid-login window. History is
// pruned to the configured window, so shrinking it below the detection
// horizon would silently break clustering detection.
const MinRapidWindow = 60 * time.Second

// Weights holds the per-factor score contributions.
type Weights struct {
	OutsideBusinessHours float64 `yaml:"outside_business_hours"`
	RapidLoginAttempts   float64 `yaml:"rapid_login_attempts"`
	MultipleFailedLogins float64 `yaml:"multiple_failed_logins"`
	RemoteLogin          float64 `yaml:"remote_login"`
}

// Config is the engine's construction-time configuration. It is validated
// once and immutable afterward.
type Config struct {
	// BusinessHoursStart/End define the half-open interval [start, end)
	// of in-hours activity, in 24-hour clock hours.
	BusinessHoursStart int
	BusinessHoursEnd   int

	// WeekdaysOnly additionally restricts business hours to Monday-Friday.
	WeekdaysOnly bool

	Weights Weights

	// RapidWindow is the symmetric clustering window for rapid-login
	// detection. RapidThreshold is the number of prior attempts inside the
	// window that triggers the factor.
	RapidWindow    time.Duration
	RapidThreshold int
}

// DefaultConfig returns the stock configuration: business hours [9, 18) on
// weekdays, a 60-second rapid-login window triggering on 3 prior attempts,
// and weights 1/3/2/1 for the four factors.
func DefaultConfig() Config {
	return Config{
		BusinessHoursStart: 9,
		BusinessHoursEnd:   18,
		WeekdaysOnly:       true,
		Weights: Weights{
			OutsideBusinessHours: 1,
			RapidLoginAttempts:   3,
			MultipleFailedLogins: 2,
			RemoteLogin:          1,
		},
		RapidWindow:    MinRapidWindow,
		RapidThreshold: 3,
	}
}

// ValidationError reports invalid construction parameters. Fatal: the
// engine refuses to start.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration. Returns a *ValidationError on the
// first violation found.
func (c Config) Validate() error {
	if c.BusinessHoursStart < 0 || c.BusinessHoursStart >= 24 {
		return &ValidationError{"business_hours.start", "must be between 0 and 23"}
	}
	if c.BusinessHoursEnd < 0 || c.BusinessHoursEnd >= 24 {
		return &ValidationError{"business_hours.end", "must be between 0 and 23"}
	}
	if c.BusinessHoursStart >= c.BusinessHoursEnd {
		return &ValidationError{"business_hours", "start must be before end"}
	}
	if c.RapidWindow < MinRapidWindow {
		return &ValidationError{"rapid_window", "must be at least 60 seconds"}
	}
	if c.RapidThreshold < 1 {
		return &ValidationError{"rapid_threshold", "must be at least 1"}
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{FactorOutsideBusinessHours, c.Weights.OutsideBusinessHours},
		{FactorRapidLoginAttempts, c.Weights.RapidLoginAttempts},
		{FactorMultipleFailedLogins, c.Weights.MultipleFailedLogins},
		{FactorRemoteLogin, c.Weights.RemoteLogin},
	} {
		if w.value < 0 {
			return &ValidationError{"weights." + w.name, "must be non-negative"}
		}
	}
	return nil
}

// Engine evaluates risk factors over events and a bounded per-user history
// of prior logon attempts. It is owned by one pipeline run; concurrent use
// requires external serialization.
type Engine struct {
	cfg     Config
	history map[string][]time.Time
	log     *zap.Logger
}

// NewEngine validates cfg and builds an engine. Pass nil for log to
// disable logging.
func NewEngine(cfg Config, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("risk engine configured",
		zap.Int("business_hours_start", cfg.BusinessHoursStart),
		zap.Int("business_hours_end", cfg.BusinessHoursEnd),
		zap.Bool("weekdays_only", cfg.WeekdaysOnly),
		zap.Duration("rapid_window", cfg.RapidWindow),
		zap.Int("rapid_threshold", cfg.RapidThreshold))
	return &Engine{
		cfg:     cfg,
		history: make(map[string][]time.Time),
		log:     log,
	}, nil
}

// InBusinessHours reports whether ts falls inside the configured business
// hours, including the weekday restriction when enabled.
func (en *Engine) InBusinessHours(ts time.Time) bool {
	if en.cfg.WeekdaysOnly {
		switch ts.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	h := ts.Hour()
	return h >= en.cfg.BusinessHoursStart && h < en.cfg.BusinessHoursEnd
}

// Annotate sets the business-hours flag on an event without scoring it.
// Used for logoff records, which carry the flag but never risk factors.
func (en *Engine) Annotate(e *model.LogEvent) error {
	ts, err := timeutil.Parse(e.Timestamp)
	if err != nil {
		return err
	}
	e.IsBusinessHours = en.InBusinessHours(ts)
	return nil
}

// Enrich evaluates all four risk factors in fixed order, sets the event's
// risk factor list and score, and sets the business-hours flag. Pure given
// a fixed history snapshot: repeated calls with unchanged state yield
// identical output. The event is not added to history; see Observe.
func (en *Engine) Enrich(e *model.LogEvent) error {
	ts, err := timeutil.Parse(e.Timestamp)
	if err != nil {
		return fmt.Errorf("enriching event for %s: %w", e.User, err)
	}

	e.IsBusinessHours = en.InBusinessHours(ts)

	factors := make([]string, 0, 4)
	score := 0.0

	if !e.IsBusinessHours {
		factors = append(factors, FactorOutsideBusinessHours)
		score += en.cfg.Weights.OutsideBusinessHours
	}
	if en.rapidAttempts(e.User, ts) >= en.cfg.RapidThreshold {
		factors = append(factors, FactorRapidLoginAttempts)
		score += en.cfg.Weights.RapidLoginAttempts
	}
	if e.Status == model.StatusFailed {
		factors = append(factors, FactorMultipleFailedLogins)
		score += en.cfg.Weights.MultipleFailedLogins
	}
	if e.LogonType == "RemoteInteractive" {
		factors = append(factors, FactorRemoteLogin)
		score += en.cfg.Weights.RemoteLogin
	}

	e.RiskFactors = factors
	e.RiskScore = score
	return nil
}

// rapidAttempts counts prior attempts by user whose absolute distance from
// ts is within the window. The window is symmetric on purpose: scans may
// arrive in reverse order and clustering should be caught either way.
func (en *Engine) rapidAttempts(user string, ts time.Time) int {
	count := 0
	for _, prior := range en.history[user] {
		d := ts.Sub(prior)
		if d < 0 {
			d = -d
		}
		if d <= en.cfg.RapidWindow {
			count++
		}
	}
	return count
}

// Observe appends a scored event to its user's history and prunes entries
// that have drifted outside the rapid-login window. Called after Enrich so
// an event never scores against itself.
func (en *Engine) Observe(e *model.LogEvent) error {
	ts, err := timeutil.Parse(e.Timestamp)
	if err != nil {
		return fmt.Errorf("recording history for %s: %w", e.User, err)
	}

	prior := len(en.history[e.User])
	kept := en.history[e.User][:0]
	for _, p := range en.history[e.User] {
		d := ts.Sub(p)
		if d < 0 {
			d = -d
		}
		if d <= en.cfg.RapidWindow {
			kept = append(kept, p)
		}
	}
	en.history[e.User] = append(kept, ts)

	if pruned := prior - len(kept); pruned > 0 {
		en.log.Debug("pruned logon history",
			zap.String("user", e.User),
			zap.Int("pruned", pruned),
			zap.Int("retained", len(kept)+1))
	}
	return nil
}

// HistorySize returns the number of retained attempts for a user.
func (en *Engine) HistorySize(user string) int {
	return len(en.history[user])
}
