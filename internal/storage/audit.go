package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/runlog"
	"github.com/marcboeker/go-duckdb"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

// AuditOptions tunes the DuckDB connection.
type AuditOptions struct {
	Threads     int    // 0 leaves the DuckDB default
	MemoryLimit string // e.g. "256MB"; empty leaves the default
}

// LogLine is one persisted run log message.
type LogLine struct {
	ImportID string    `json:"importId"`
	LoggedAt time.Time `json:"loggedAt"`
	Message  string    `json:"message"`
}

// OutcomeRow is one persisted pairing outcome.
type OutcomeRow struct {
	ImportID string             `json:"importId"`
	Kind     models.OutcomeKind `json:"kind"`
	Key      string             `json:"key"`
	Detail   string             `json:"detail,omitempty"`
	Applied  int                `json:"applied"`
	Linked   int                `json:"linked"`
	Skipped  int                `json:"skipped"`
	Failed   int                `json:"failed"`
}

// AuditStore persists run logs and pairing outcomes of every import in a
// DuckDB file, so a run can be inspected after the server restarts.
type AuditStore struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	seq    int64
	logger *zap.Logger
}

// OpenAuditStore opens or creates the audit database at dbPath.
func OpenAuditStore(dbPath string, opts AuditOptions, logger *zap.Logger) (*AuditStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{"PRAGMA enable_progress_bar=false"}
		if opts.Threads > 0 {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
		}
		if opts.MemoryLimit != "" {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				logger.Warn("DuckDB pragma failed", zap.String("pragma", pragma), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	schema := []string{
		`CREATE TABLE IF NOT EXISTS run_log (
			id        VARCHAR PRIMARY KEY,
			import_id VARCHAR NOT NULL,
			seq       BIGINT NOT NULL,
			logged_at TIMESTAMP NOT NULL,
			message   VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id          VARCHAR PRIMARY KEY,
			import_id   VARCHAR NOT NULL,
			position    INTEGER NOT NULL,
			kind        VARCHAR NOT NULL,
			match_key   VARCHAR NOT NULL,
			detail      VARCHAR,
			applied     INTEGER NOT NULL,
			linked      INTEGER NOT NULL,
			skipped     INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating audit schema: %w", err)
		}
	}

	var seq int64
	if err := db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM run_log").Scan(&seq); err != nil {
		db.Close()
		return nil, fmt.Errorf("reading run log position: %w", err)
	}

	logger.Info("Audit store opened", zap.String("path", dbPath))
	return &AuditStore{db: db, dbPath: dbPath, seq: seq, logger: logger}, nil
}

// Sink returns a run log sink that persists lines under importID.
// Write failures are logged and otherwise ignored.
func (a *AuditStore) Sink(importID string) runlog.Sink {
	return &auditSink{store: a, importID: importID}
}

type auditSink struct {
	store    *AuditStore
	importID string
}

func (s *auditSink) Append(message string) {
	if err := s.store.appendLine(s.importID, message); err != nil {
		s.store.logger.Warn("Run log line not persisted", zap.String("import", s.importID), zap.Error(err))
	}
}

func (a *AuditStore) appendLine(importID, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	_, err := a.db.Exec("INSERT INTO run_log VALUES (?, ?, ?, ?, ?)",
		xid.New().String(), importID, a.seq, time.Now(), message)
	return err
}

// RunLog returns the persisted run log of an import in order.
func (a *AuditStore) RunLog(ctx context.Context, importID string) ([]LogLine, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT logged_at, message FROM run_log WHERE import_id = ? ORDER BY seq", importID)
	if err != nil {
		return nil, fmt.Errorf("querying run log: %w", err)
	}
	defer rows.Close()

	lines := make([]LogLine, 0)
	for rows.Next() {
		l := LogLine{ImportID: importID}
		if err := rows.Scan(&l.LoggedAt, &l.Message); err != nil {
			return nil, fmt.Errorf("scanning run log: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// RecordOutcome persists every pairing outcome of an import using the
// DuckDB appender.
func (a *AuditStore) RecordOutcome(ctx context.Context, importID string, out *models.Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	defer conn.Close()

	now := time.Now()
	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "outcomes")
		if err != nil {
			return fmt.Errorf("creating appender: %w", err)
		}
		defer appender.Close()

		groups := [][]models.PairingOutcome{out.Paired, out.UnpairedLimits, out.UnpairedResults}
		position := int32(0)
		for _, group := range groups {
			for _, p := range group {
				position++
				detail := p.Reason
				if detail == "" && p.Report != nil {
					detail = p.Report.String()
				}
				err := appender.AppendRow(
					xid.New().String(),
					importID,
					position,
					string(p.Kind),
					p.Key.String(),
					detail,
					int32(p.Report.Count(models.UnitApplied)),
					int32(p.Report.Count(models.UnitLinked)),
					int32(p.Report.Count(models.UnitSkipped)),
					int32(p.Report.Count(models.UnitFailed)),
					now,
				)
				if err != nil {
					return fmt.Errorf("appending %s: %w", p.Key, err)
				}
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

// Outcomes returns the latest persisted outcome snapshot of an import.
// A snapshot is written after the run and after every reconciled pair.
func (a *AuditStore) Outcomes(ctx context.Context, importID string) ([]OutcomeRow, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT kind, match_key, COALESCE(detail, ''), applied, linked, skipped, failed
		FROM outcomes
		WHERE import_id = ?
		  AND recorded_at = (SELECT MAX(recorded_at) FROM outcomes WHERE import_id = ?)
		ORDER BY position`, importID, importID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	out := make([]OutcomeRow, 0)
	for rows.Next() {
		r := OutcomeRow{ImportID: importID}
		var kind string
		if err := rows.Scan(&kind, &r.Key, &r.Detail, &r.Applied, &r.Linked, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		r.Kind = models.OutcomeKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database. The file is kept.
func (a *AuditStore) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
