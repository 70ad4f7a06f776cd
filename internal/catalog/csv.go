package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// CSV column layout. Pin columns are named pin:<provider> so the same file
// round-trips through spreadsheet tools without a side schema.
const (
	colRowID        = "row_id"
	colTitle        = "title"
	colYearHint     = "year_hint"
	colPlatformHint = "platform_hint"
	colConfidence   = "confidence"
	colTags         = "tags"
	pinColPrefix    = "pin:"
)

// ImportSummary reports what an import changed.
type ImportSummary struct {
	Created int
	Updated int
	Pinned  int
}

// ImportCSV upserts catalog rows from r. Rows with a known row_id update in
// place; rows without one are created. Pin cells set pins when non-empty and
// are otherwise ignored, so an exported file re-imported after editing
// titles never clears pins the user set elsewhere.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (ImportSummary, error) {
	var summary ImportSummary

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return summary, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	var pinProviders []string
	for i, name := range header {
		name = strings.TrimSpace(strings.ToLower(name))
		index[name] = i
		if strings.HasPrefix(name, pinColPrefix) {
			pinProviders = append(pinProviders, strings.TrimPrefix(name, pinColPrefix))
		}
	}
	if _, ok := index[colTitle]; !ok {
		return summary, errors.New("csv is missing the title column")
	}

	cell := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read csv line %d: %w", line, err)
		}

		title := cell(record, colTitle)
		if title == "" {
			continue
		}
		yearHint := 0
		if raw := cell(record, colYearHint); raw != "" {
			yearHint, err = strconv.Atoi(raw)
			if err != nil {
				return summary, fmt.Errorf("csv line %d: bad year_hint %q", line, raw)
			}
		}
		platformHint := cell(record, colPlatformHint)

		rowID := cell(record, colRowID)
		switch {
		case rowID == "":
			row, err := s.AddRow(ctx, title, yearHint, platformHint)
			if err != nil {
				return summary, fmt.Errorf("csv line %d: %w", line, err)
			}
			rowID = row.RowID
			summary.Created++
		default:
			existing, err := s.GetRow(ctx, rowID)
			if err != nil {
				return summary, fmt.Errorf("csv line %d: %w", line, err)
			}
			if existing == nil {
				return summary, fmt.Errorf("csv line %d: unknown row id %q", line, rowID)
			}
			existing.Title = title
			existing.YearHint = yearHint
			existing.PlatformHint = platformHint
			if err := s.UpdateRow(ctx, *existing); err != nil {
				return summary, fmt.Errorf("csv line %d: %w", line, err)
			}
			summary.Updated++
		}

		for _, provider := range pinProviders {
			pin := cell(record, pinColPrefix+provider)
			if pin == "" {
				continue
			}
			if err := s.SetPin(ctx, rowID, provider, pin); err != nil {
				return summary, fmt.Errorf("csv line %d: %w", line, err)
			}
			summary.Pinned++
		}
	}

	return summary, nil
}

// ExportCSV writes the full catalog to w: rows, pins, and the latest
// diagnostic confidence and tags.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	catalogRows, err := s.ListRows(ctx)
	if err != nil {
		return err
	}

	providerSet := make(map[string]struct{})
	for _, row := range catalogRows {
		for provider := range row.Pins {
			providerSet[provider] = struct{}{}
		}
	}
	providers := make([]string, 0, len(providerSet))
	for provider := range providerSet {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	writer := csv.NewWriter(w)
	header := []string{colRowID, colTitle, colYearHint, colPlatformHint}
	for _, provider := range providers {
		header = append(header, pinColPrefix+provider)
	}
	header = append(header, colConfidence, colTags)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range catalogRows {
		record := []string{row.RowID, row.Title, "", row.PlatformHint}
		if row.YearHint > 0 {
			record[2] = strconv.Itoa(row.YearHint)
		}
		for _, provider := range providers {
			record = append(record, row.Pins[provider])
		}

		confidence, tags := "", ""
		report, err := s.Report(ctx, row.RowID)
		if err != nil {
			return err
		}
		if report != nil {
			confidence = string(report.Confidence)
			tags = strings.Join(report.Tags, ";")
		}
		record = append(record, confidence, tags)

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.RowID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
