package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const metricsSchema = `
CREATE TABLE IF NOT EXISTS provider_calls (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	scenario_id TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL,
	operation TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	tokens_reported INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_provider_calls_session ON provider_calls (session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_provider_calls_scenario ON provider_calls (scenario_id, created_at);
`

// SQLiteSink is the queryable half of the dual persistence scheme. The test
// bed reads scenario records back through it.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLiteSink opens (and migrates) a SQLite metrics store at the provided
// path.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("metrics db path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open metrics db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping metrics db: %w", err)
	}
	if _, err := db.Exec(metricsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate metrics db: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Write inserts one record.
func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_calls
			(id, session_id, scenario_id, provider, operation, latency_ms, prompt_tokens, completion_tokens, tokens_reported, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.ScenarioID, rec.Provider, rec.Operation,
		rec.LatencyMS, rec.PromptTokens, rec.CompletionTokens, boolToInt(rec.TokensReported),
		rec.Outcome, rec.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert metrics record: %w", err)
	}
	return nil
}

// BySession returns the records captured for a session, oldest first.
func (s *SQLiteSink) BySession(ctx context.Context, sessionID string) ([]Record, error) {
	return s.query(ctx, "session_id", sessionID)
}

// ByScenario returns the records captured for a test scenario, oldest first.
func (s *SQLiteSink) ByScenario(ctx context.Context, scenarioID string) ([]Record, error) {
	return s.query(ctx, "scenario_id", scenarioID)
}

// Close closes the database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) query(ctx context.Context, column, value string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, scenario_id, provider, operation, latency_ms, prompt_tokens, completion_tokens, tokens_reported, outcome, created_at
		FROM provider_calls WHERE `+column+` = ? ORDER BY created_at, id`, value)
	if err != nil {
		return nil, fmt.Errorf("query metrics records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var reported int
		var createdAt int64
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.ScenarioID, &rec.Provider, &rec.Operation,
			&rec.LatencyMS, &rec.PromptTokens, &rec.CompletionTokens, &reported,
			&rec.Outcome, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan metrics record: %w", err)
		}
		rec.TokensReported = reported != 0
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics records: %w", err)
	}
	return records, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
