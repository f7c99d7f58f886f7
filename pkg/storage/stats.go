package storage

import "context"

type StatusStats struct {
	Status string
	Count  int
}

type RegionStats struct {
	Region      string
	RecordCount int
	NeedsReview int
}

// GetCandidateStats returns candidate counts grouped by status.
func (d *DB) GetCandidateStats(ctx context.Context) ([]StatusStats, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM candidates GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []StatusStats
	for rows.Next() {
		var s StatusStats
		if err := rows.Scan(&s.Status, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetRegionStats returns record counts grouped by region.
func (d *DB) GetRegionStats(ctx context.Context) ([]RegionStats, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT
			COALESCE(region, ''),
			COUNT(*),
			SUM(needs_review)
		FROM records
		GROUP BY region
		ORDER BY region`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []RegionStats
	for rows.Next() {
		var s RegionStats
		if err := rows.Scan(&s.Region, &s.RecordCount, &s.NeedsReview); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
