package storage

import (
	"context"
	"database/sql"
)

// SyncProcessedDomains rebuilds the processed-domain set from scratch as the
// union of all record domains and all terminal-status candidate domains.
// The rebuild is a pure function of current state: re-running it after a
// crash converges to the same set no matter how many times it partially ran.
func (d *DB) SyncProcessedDomains(ctx context.Context) (int, error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM processed_domains`); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO processed_domains(domain)
		SELECT domain FROM records
		UNION
		SELECT domain FROM candidates WHERE status IN ('listed','rejected','skipped')`); err != nil {
		return 0, err
	}

	var count int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_domains`).Scan(&count); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// ProcessedDomains loads the processed-domain set for membership checks.
func (d *DB) ProcessedDomains(ctx context.Context) (map[string]struct{}, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT domain FROM processed_domains`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, err
		}
		out[domain] = struct{}{}
	}
	return out, rows.Err()
}
