package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gamepin/internal/consensus"
	"gamepin/internal/identity"
)

// Run summarizes one resolution run.
type Run struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Resolved   int
	Review     int
	Failed     int
}

// StartRun records a new run and returns its id.
func (s *Store) StartRun(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`, runID, nowStamp())
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return runID, nil
}

// FinishRun stores the final counts for a run.
func (s *Store) FinishRun(ctx context.Context, runID string, resolved, review, failed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, resolved_rows = ?, review_rows = ?, failed_rows = ?
         WHERE run_id = ?`,
		nowStamp(), resolved, review, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %q not found", runID)
	}
	return nil
}

// LastRun returns the most recently started run, or nil when none exist.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, resolved_rows, review_rows, failed_rows
         FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return run, nil
}

// SaveIdentities stores the per-provider outcomes for one row, superseding
// any previous run's snapshot for the same (row, provider) pairs.
func (s *Store) SaveIdentities(ctx context.Context, rowID, runID string, identities map[string]identity.ResolvedIdentity) error {
	if len(identities) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowStamp()
	for provider, ri := range identities {
		payload, err := json.Marshal(ri)
		if err != nil {
			return fmt.Errorf("marshal identity for %s: %w", provider, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO resolved_identities (row_id, provider, run_id, identity_json, updated_at)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT (row_id, provider) DO UPDATE SET
                 run_id = excluded.run_id,
                 identity_json = excluded.identity_json,
                 updated_at = excluded.updated_at`,
			rowID, provider, runID, string(payload), now,
		)
		if err != nil {
			return fmt.Errorf("save identity for %s: %w", provider, err)
		}
	}
	return tx.Commit()
}

// Identities loads the latest per-provider outcomes for one row.
func (s *Store) Identities(ctx context.Context, rowID string) (map[string]identity.ResolvedIdentity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, identity_json FROM resolved_identities WHERE row_id = ?`, rowID)
	if err != nil {
		return nil, fmt.Errorf("load identities: %w", err)
	}
	defer rows.Close()

	out := make(map[string]identity.ResolvedIdentity)
	for rows.Next() {
		var provider, payload string
		if err := rows.Scan(&provider, &payload); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		var ri identity.ResolvedIdentity
		if err := json.Unmarshal([]byte(payload), &ri); err != nil {
			return nil, fmt.Errorf("parse identity for %s: %w", provider, err)
		}
		out[provider] = ri
	}
	return out, rows.Err()
}

// SaveReport stores the diagnostic report for a row, superseding the
// previous run's report.
func (s *Store) SaveReport(ctx context.Context, runID string, report consensus.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (row_id, run_id, confidence, report_json, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (row_id) DO UPDATE SET
             run_id = excluded.run_id,
             confidence = excluded.confidence,
             report_json = excluded.report_json,
             updated_at = excluded.updated_at`,
		report.RowID, runID, string(report.Confidence), string(payload), nowStamp(),
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Report loads the latest diagnostic report for one row, or nil when the
// row has not been diagnosed.
func (s *Store) Report(ctx context.Context, rowID string) (*consensus.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM reports WHERE row_id = ?`, rowID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	var report consensus.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}

// ReviewRowIDs lists rows whose latest report landed below HIGH confidence,
// ordered for stable output.
func (s *Store) ReviewRowIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id FROM reports WHERE confidence != ? ORDER BY confidence, row_id`,
		string(consensus.ConfidenceHigh))
	if err != nil {
		return nil, fmt.Errorf("list review rows: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var rowID string
		if err := rows.Scan(&rowID); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		out = append(out, rowID)
	}
	return out, rows.Err()
}

// Stats counts rows grouped by latest report confidence. Rows without a
// report are counted under the empty key.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(r.confidence, ''), COUNT(1)
         FROM catalog_rows c LEFT JOIN reports r ON r.row_id = c.row_id
         GROUP BY COALESCE(r.confidence, '')`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var confidence string
		var count int
		if err := rows.Scan(&confidence, &count); err != nil {
			return nil, err
		}
		stats[confidence] = count
	}
	return stats, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(&run.RunID, &startedRaw, &finishedRaw, &run.Resolved, &run.Review, &run.Failed); err != nil {
		return nil, err
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}
