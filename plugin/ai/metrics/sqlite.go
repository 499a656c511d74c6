package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/hrygo/peakstate/plugin/ai/complexity"
)

const decisionSchema = `
CREATE TABLE IF NOT EXISTS routing_decision (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TIMESTAMP NOT NULL,
	user_id TEXT NOT NULL,
	intent TEXT NOT NULL,
	complexity INTEGER NOT NULL,
	backend TEXT NOT NULL,
	reason TEXT NOT NULL,
	estimated_cost REAL NOT NULL,
	latency_ms REAL NOT NULL,
	satisfaction REAL
);
CREATE INDEX IF NOT EXISTS idx_routing_decision_ts ON routing_decision (ts);
`

// DefaultFlushInterval is how often the persister drains the recorder.
const DefaultFlushInterval = time.Hour

// Persister writes routing decisions to a local sqlite database so
// threshold tuning can run against real traffic instead of guesses.
type Persister struct {
	db        *sql.DB
	recorder  *complexity.DecisionRecorder
	interval  time.Duration
	logger    *slog.Logger
	lastFlush time.Time
}

// NewPersister opens (or creates) the sqlite database at dsn.
func NewPersister(dsn string, recorder *complexity.DecisionRecorder, interval time.Duration, logger *slog.Logger) (*Persister, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open metrics database")
	}
	if _, err := db.Exec(decisionSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrate metrics database")
	}
	return &Persister{db: db, recorder: recorder, interval: interval, logger: logger}, nil
}

// Run flushes on a ticker until the context is canceled. A final flush
// happens on shutdown so a restart loses at most nothing.
func (p *Persister) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := p.Flush(context.Background()); err != nil {
				p.logger.Warn("final metrics flush failed", slog.String("error", err.Error()))
			}
			return
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				p.logger.Warn("metrics flush failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Flush writes every decision recorded since the previous flush.
func (p *Persister) Flush(ctx context.Context) error {
	records := p.recorder.Snapshot()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin metrics flush")
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO routing_decision
		(ts, user_id, intent, complexity, backend, reason, estimated_cost, latency_ms, satisfaction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "prepare metrics insert")
	}
	defer stmt.Close()

	var flushed int
	var newest time.Time
	for _, rec := range records {
		if !rec.Time.After(p.lastFlush) {
			continue
		}
		var satisfaction any
		if rec.Satisfaction != nil {
			satisfaction = *rec.Satisfaction
		}
		if _, err := stmt.ExecContext(ctx, rec.Time, rec.UserID, rec.Intent, rec.Complexity,
			rec.Backend, rec.Reason, rec.EstimatedCost, rec.LatencyMs, satisfaction); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "insert routing decision")
		}
		flushed++
		if rec.Time.After(newest) {
			newest = rec.Time
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit metrics flush")
	}
	if !newest.IsZero() {
		p.lastFlush = newest
	}
	if flushed > 0 {
		p.logger.Debug("routing decisions persisted", slog.Int("rows", flushed))
	}
	return nil
}

// Close closes the underlying database.
func (p *Persister) Close() error {
	return p.db.Close()
}
