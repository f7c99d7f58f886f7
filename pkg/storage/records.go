package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateRecord indicates an insert for a domain or slug that already
// has a record.
var ErrDuplicateRecord = errors.New("record already exists")

// InsertRecord creates a new record. Domain and slug uniqueness are
// enforced by the schema; violations surface as ErrDuplicateRecord.
func (d *DB) InsertRecord(ctx context.Context, r Record) error {
	social, err := marshalStrings(r.Social)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(r.Tags)
	if err != nil {
		return err
	}
	issues, err := marshalIssues(r.ReviewIssues)
	if err != nil {
		return err
	}

	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO records(slug, domain, name, website, city, state, region,
		   phone, email, address, social, summary, description, tags,
		   rating, review_count, place_id, latitude, longitude,
		   external_verified, needs_review, review_issues, last_audit_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.Slug, r.Domain, r.Name, nullIfEmpty(r.Website), nullIfEmpty(r.City), nullIfEmpty(r.State), nullIfEmpty(r.Region),
		nullIfEmpty(r.Phone), nullIfEmpty(r.Email), nullIfEmpty(r.Address), social,
		nullIfEmpty(r.Summary), nullIfEmpty(r.Description), tags,
		r.Rating, r.ReviewCount, nullIfEmpty(r.PlaceID), r.Latitude, r.Longitude,
		boolToInt(r.ExternalVerified), boolToInt(r.NeedsReview), issues, nullTime(r.LastAuditAt))
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, r.Domain)
	}
	return err
}

// UpdateRecord rewrites the mutable fields of the record identified by
// domain. The record identity (slug, domain) never changes.
func (d *DB) UpdateRecord(ctx context.Context, r Record) error {
	social, err := marshalStrings(r.Social)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(r.Tags)
	if err != nil {
		return err
	}
	issues, err := marshalIssues(r.ReviewIssues)
	if err != nil {
		return err
	}

	res, err := d.sql.ExecContext(ctx,
		`UPDATE records SET name = ?, website = ?, city = ?, state = ?, region = ?,
		   phone = ?, email = ?, address = ?, social = ?,
		   summary = ?, description = ?, tags = ?,
		   rating = ?, review_count = ?, place_id = ?, latitude = ?, longitude = ?,
		   external_verified = ?, needs_review = ?, review_issues = ?, last_audit_at = ?,
		   updated_at = CURRENT_TIMESTAMP
		 WHERE domain = ?`,
		r.Name, nullIfEmpty(r.Website), nullIfEmpty(r.City), nullIfEmpty(r.State), nullIfEmpty(r.Region),
		nullIfEmpty(r.Phone), nullIfEmpty(r.Email), nullIfEmpty(r.Address), social,
		nullIfEmpty(r.Summary), nullIfEmpty(r.Description), tags,
		r.Rating, r.ReviewCount, nullIfEmpty(r.PlaceID), r.Latitude, r.Longitude,
		boolToInt(r.ExternalVerified), boolToInt(r.NeedsReview), issues, nullTime(r.LastAuditAt),
		r.Domain)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("record not found: %s", r.Domain)
	}
	return nil
}

// GetRecord returns the record for a domain, or sql.ErrNoRows.
func (d *DB) GetRecord(ctx context.Context, domain string) (Record, error) {
	return d.getRecordWhere(ctx, "domain = ?", domain)
}

// GetRecordBySlug returns the record for a slug, or sql.ErrNoRows.
func (d *DB) GetRecordBySlug(ctx context.Context, slug string) (Record, error) {
	return d.getRecordWhere(ctx, "slug = ?", slug)
}

// SlugExists reports whether a slug is taken. Used by the record builder
// for deterministic collision suffixing.
func (d *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE slug = ?`, slug).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordListOptions controls record selection.
type RecordListOptions struct {
	Region string
}

// ListRecords returns records matching the filters, ordered by slug.
func (d *DB) ListRecords(ctx context.Context, opts RecordListOptions) ([]Record, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Region != "" {
		where += " AND region = ?"
		args = append(args, opts.Region)
	}
	q := recordSelect + " " + where + " ORDER BY slug"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const recordSelect = `SELECT slug, domain, name, website, city, state, region,
  phone, email, address, social, summary, description, tags,
  rating, review_count, place_id, latitude, longitude,
  external_verified, needs_review, review_issues, last_audit_at, created_at, updated_at
FROM records`

func (d *DB) getRecordWhere(ctx context.Context, cond string, arg interface{}) (Record, error) {
	row := d.sql.QueryRowContext(ctx, recordSelect+" WHERE "+cond, arg)
	return scanRecord(row.Scan)
}

func scanRecord(scan func(...interface{}) error) (Record, error) {
	var r Record
	var website, city, state, region, phone, email, address sql.NullString
	var social, summary, description, tags, placeID, issuesJSON sql.NullString
	var lat, lng sql.NullFloat64
	var extVerified, needsReview int
	var lastAuditAt sql.NullTime
	if err := scan(&r.Slug, &r.Domain, &r.Name, &website, &city, &state, &region,
		&phone, &email, &address, &social, &summary, &description, &tags,
		&r.Rating, &r.ReviewCount, &placeID, &lat, &lng,
		&extVerified, &needsReview, &issuesJSON, &lastAuditAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	r.Website = website.String
	r.City = city.String
	r.State = state.String
	r.Region = region.String
	r.Phone = phone.String
	r.Email = email.String
	r.Address = address.String
	r.Summary = summary.String
	r.Description = description.String
	r.PlaceID = placeID.String
	if lat.Valid {
		v := lat.Float64
		r.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		r.Longitude = &v
	}
	r.ExternalVerified = extVerified == 1
	r.NeedsReview = needsReview == 1
	if lastAuditAt.Valid {
		r.LastAuditAt = lastAuditAt.Time
	}
	if social.Valid && social.String != "" {
		_ = json.Unmarshal([]byte(social.String), &r.Social)
	}
	if tags.Valid && tags.String != "" {
		_ = json.Unmarshal([]byte(tags.String), &r.Tags)
	}
	if issuesJSON.Valid && issuesJSON.String != "" {
		_ = json.Unmarshal([]byte(issuesJSON.String), &r.ReviewIssues)
	}
	return r, nil
}

func marshalStrings(ss []string) (interface{}, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func marshalIssues(issues []Issue) (interface{}, error) {
	if len(issues) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(issues)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
