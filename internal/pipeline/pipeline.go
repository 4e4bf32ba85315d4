// Package pipeline orchestrates classification, session correlation, and
// risk scoring over a stream of raw events. Processing is single-threaded
// and sequential: each event is fully classified, correlated, and scored
// before the next is considered, so per-user history stays linearizable.
package pipeline

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cdtdelta/logguard/internal/classify"
	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/risk"
	"github.com/cdtdelta/logguard/internal/session"
	"github.com/cdtdelta/logguard/internal/timeutil"
)

// Source is the pull interface over a raw event provider. Next returns the
// next batch of events, io.EOF when the source is exhausted, or any other
// error for a recoverable read failure. Batches may arrive in reverse
// chronological order.
type Source interface {
	Next() ([]model.RawEvent, error)
}

// Result holds the two ordered output sequences of a scan plus every
// per-event failure counter. One bad record never invalidates the rest of
// a scan; everything skipped is counted here.
type Result struct {
	ScanID  string
	Logons  []*model.LogEvent
	Logoffs []*model.LogEvent

	Malformed         int
	InvalidTimestamps int
	Unsupported       int
	Filtered          int
	Discarded         int
	OrphanLogoffs     int
	SessionConflicts  int

	// ReadErr is set when the source failed mid-scan. The results
	// collected up to that point are still valid and returned.
	ReadErr error
}

// Processed returns the number of events that reached an output sequence.
func (r *Result) Processed() int {
	return len(r.Logons) + len(r.Logoffs)
}

// Pipeline wires a classifier, session tracker, and risk engine over one
// scan. Each pipeline owns its tracker; the engine is constructed by the
// caller and passed in.
type Pipeline struct {
	engine  *risk.Engine
	tracker *session.Tracker
	log     *zap.Logger
}

// New builds a pipeline around a constructed risk engine. Pass nil for log
// to disable logging.
func New(engine *risk.Engine, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		engine:  engine,
		tracker: session.NewTracker(),
		log:     log,
	}
}

// Run consumes the source until exhaustion or a read error. Events older
// than cutoff are filtered, not treated as end-of-stream: a backwards scan
// may keep yielding newer events after older ones. Pass the zero time to
// disable cutoff filtering. On a read error the partial result is returned
// with ReadErr set; the scan never propagates a crash.
func (p *Pipeline) Run(src Source, cutoff time.Time) *Result {
	res := &Result{ScanID: uuid.NewString()}

	for {
		batch, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			res.ReadErr = err
			p.log.Warn("source read failed, returning partial results",
				zap.String("scan_id", res.ScanID), zap.Error(err))
			break
		}
		for _, raw := range batch {
			p.process(res, raw, cutoff)
		}
	}

	res.SessionConflicts = p.tracker.Conflicts()
	p.log.Info("scan complete",
		zap.String("scan_id", res.ScanID),
		zap.Int("logons", len(res.Logons)),
		zap.Int("logoffs", len(res.Logoffs)),
		zap.Int("malformed", res.Malformed),
		zap.Int("invalid_timestamps", res.InvalidTimestamps),
		zap.Int("orphan_logoffs", res.OrphanLogoffs),
		zap.Int("session_conflicts", res.SessionConflicts),
		zap.Int("open_sessions", p.tracker.Open()),
	)
	return res
}

// process runs one raw event through classify, correlate, and score.
func (p *Pipeline) process(res *Result, raw model.RawEvent, cutoff time.Time) {
	e, err := classify.Classify(raw)
	if err != nil {
		switch {
		case errors.Is(err, classify.ErrUnsupportedEvent):
			res.Unsupported++
		case errors.Is(err, timeutil.ErrInvalidTimestamp):
			res.InvalidTimestamps++
			p.log.Debug("skipping event with invalid timestamp",
				zap.Int("event_id", raw.EventID), zap.String("timestamp", raw.Timestamp))
		default:
			res.Malformed++
			p.log.Debug("skipping malformed event", zap.Error(err))
		}
		return
	}

	if !cutoff.IsZero() {
		// Canonical timestamps always re-parse.
		ts, err := timeutil.Parse(e.Timestamp)
		if err != nil {
			res.InvalidTimestamps++
			return
		}
		if ts.Before(cutoff) {
			res.Filtered++
			return
		}
	}

	if e.Kind == model.KindLogoff {
		p.processLogoff(res, e)
		return
	}

	// Every successful logon opens a session, human or not; the logoff
	// side needs the entry to compute a duration either way.
	if e.Kind == model.KindLogon {
		if err := p.tracker.RecordLogon(e.SessionID, e.Timestamp); err != nil {
			res.InvalidTimestamps++
			return
		}
	}

	if !classify.IsHumanInteractive(e) && e.Status != model.StatusFailed {
		res.Discarded++
		return
	}

	if err := p.engine.Enrich(e); err != nil {
		res.InvalidTimestamps++
		return
	}
	res.Logons = append(res.Logons, e)

	// History is appended only after scoring so an event never scores
	// against itself.
	if err := p.engine.Observe(e); err != nil {
		p.log.Warn("recording history failed", zap.String("user", e.User), zap.Error(err))
	}
}

// processLogoff correlates a logoff with its open session, independent of
// risk scoring. An orphan logoff is a normal terminal outcome.
func (p *Pipeline) processLogoff(res *Result, e *model.LogEvent) {
	dur, err := p.tracker.RecordLogoff(e.SessionID, e.Timestamp)
	if err != nil {
		res.InvalidTimestamps++
		return
	}
	if dur == nil {
		res.OrphanLogoffs++
	} else {
		e.SessionDuration = dur
	}

	if err := p.engine.Annotate(e); err != nil {
		res.InvalidTimestamps++
		return
	}
	res.Logoffs = append(res.Logoffs, e)
}
