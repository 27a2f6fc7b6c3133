package store

import (
	"context"
	"fmt"
)

// Report is a read-only snapshot of table sizes (packages, duplicates,
// so_breaks, issues),
// printed by "analyze --report" without writing anything.
type Report struct {
	Packages   int64
	Duplicates int64
	SOBreaks   int64
	OpenIssues int64
}

// CountsReport queries the current row counts behind analyze --report.
func (s *Store) CountsReport(ctx context.Context) (Report, error) {
	var r Report
	queries := []struct {
		sql string
		dst *int64
	}{
		{"SELECT count(*) FROM packages", &r.Packages},
		{"SELECT count(*) FROM package_duplicates", &r.Duplicates},
		{"SELECT count(*) FROM so_breaks", &r.SOBreaks},
		{"SELECT count(*) FROM issues", &r.OpenIssues},
	}
	for _, q := range queries {
		if err := s.pool.QueryRow(ctx, q.sql).Scan(q.dst); err != nil {
			return Report{}, classify(fmt.Errorf("store: counting for report: %w", err))
		}
	}
	return r, nil
}
