package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gamepin/internal/identity"
)

// NewRowID mints an opaque catalog row identifier.
func NewRowID() string {
	return "rid:" + uuid.NewString()
}

// AddRow inserts a new catalog row and returns it with a fresh row id.
func (s *Store) AddRow(ctx context.Context, title string, yearHint int, platformHint string) (identity.Row, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return identity.Row{}, errors.New("row title cannot be empty")
	}

	row := identity.Row{
		RowID:        NewRowID(),
		Title:        title,
		YearHint:     yearHint,
		PlatformHint: strings.TrimSpace(platformHint),
		Pins:         map[string]string{},
	}
	now := nowStamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_rows (row_id, title, year_hint, platform_hint, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		row.RowID, row.Title, row.YearHint, row.PlatformHint, now, now,
	)
	if err != nil {
		return identity.Row{}, fmt.Errorf("insert row: %w", err)
	}
	return row, nil
}

// GetRow fetches one row with its pins, or nil when absent.
func (s *Store) GetRow(ctx context.Context, rowID string) (*identity.Row, error) {
	row := identity.Row{Pins: map[string]string{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT row_id, title, year_hint, platform_hint FROM catalog_rows WHERE row_id = ?`,
		rowID,
	).Scan(&row.RowID, &row.Title, &row.YearHint, &row.PlatformHint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get row: %w", err)
	}

	if err := s.loadPins(ctx, map[string]*identity.Row{row.RowID: &row}); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRows returns every catalog row with pins, ordered by creation time.
func (s *Store) ListRows(ctx context.Context) ([]identity.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, title, year_hint, platform_hint FROM catalog_rows ORDER BY created_at, row_id`)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var out []identity.Row
	byID := make(map[string]*identity.Row)
	for rows.Next() {
		row := identity.Row{Pins: map[string]string{}}
		if err := rows.Scan(&row.RowID, &row.Title, &row.YearHint, &row.PlatformHint); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		byID[out[i].RowID] = &out[i]
	}
	if err := s.loadPins(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRow persists title and hint edits for an existing row.
func (s *Store) UpdateRow(ctx context.Context, row identity.Row) error {
	title := strings.TrimSpace(row.Title)
	if title == "" {
		return errors.New("row title cannot be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE catalog_rows SET title = ?, year_hint = ?, platform_hint = ?, updated_at = ?
         WHERE row_id = ?`,
		title, row.YearHint, strings.TrimSpace(row.PlatformHint), nowStamp(), row.RowID,
	)
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("row %q not found", row.RowID)
	}
	return nil
}

// DeleteRow removes a row and, via cascade, its pins, identities, and
// report.
func (s *Store) DeleteRow(ctx context.Context, rowID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_rows WHERE row_id = ?`, rowID)
	if err != nil {
		return false, fmt.Errorf("delete row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetPin records a pin value for (row, provider). An empty pin deletes the
// record. The store enforces no policy here; callers own that decision.
func (s *Store) SetPin(ctx context.Context, rowID, provider, pin string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider cannot be empty")
	}
	pin = strings.TrimSpace(pin)

	if pin == "" {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM pins WHERE row_id = ? AND provider = ?`, rowID, provider)
		if err != nil {
			return fmt.Errorf("clear pin: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pins (row_id, provider, pin, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT (row_id, provider) DO UPDATE SET pin = excluded.pin, updated_at = excluded.updated_at`,
		rowID, provider, pin, nowStamp(),
	)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *Store) loadPins(ctx context.Context, byID map[string]*identity.Row) error {
	if len(byID) == 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT row_id, provider, pin FROM pins`)
	if err != nil {
		return fmt.Errorf("load pins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rowID, provider, pin string
		if err := rows.Scan(&rowID, &provider, &pin); err != nil {
			return fmt.Errorf("scan pin: %w", err)
		}
		if row, ok := byID[rowID]; ok {
			row.Pins[provider] = pin
		}
	}
	return rows.Err()
}
