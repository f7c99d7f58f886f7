package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition indicates a status edge the state machine does not
// permit. It fails the single operation loudly without touching the store.
var ErrInvalidTransition = errors.New("invalid candidate status transition")

// ErrNoActiveCandidate indicates a transition was requested for a domain
// with no active candidate.
var ErrNoActiveCandidate = errors.New("no active candidate for domain")

// validTransitions describes the candidate state machine:
// pending -> evaluated -> {listed, rejected, skipped}
// pending -> {error, skipped}; error -> pending (manual retry only).
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusEvaluated, StatusError, StatusSkipped},
	StatusEvaluated: {StatusListed, StatusRejected, StatusSkipped},
	StatusError:     {StatusPending},
}

func transitionAllowed(from, to Status) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// UpsertOutcome reports what UpsertCandidate did.
type UpsertOutcome int

const (
	// UpsertInserted means a new pending candidate was created.
	UpsertInserted UpsertOutcome = iota
	// UpsertUpdated means an existing active candidate was refreshed in place.
	UpsertUpdated
	// UpsertDroppedTerminal means the domain already reached a terminal
	// status and the insert was dropped.
	UpsertDroppedTerminal
)

// UpsertCandidate inserts c as a new pending candidate, or updates the
// existing active candidate for its domain in place (preserving
// discovered_at). A domain that already reached listed/rejected/skipped is
// never given a second active row; such upserts are dropped.
func (d *DB) UpsertCandidate(ctx context.Context, c Candidate) (UpsertOutcome, error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return UpsertDroppedTerminal, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM candidates WHERE domain = ? AND status IN ('pending','evaluated','error') LIMIT 1`,
		c.Domain).Scan(&status)
	switch {
	case err == nil:
		// Active row exists: refresh discovery metadata, keep discovered_at.
		_, err = tx.ExecContext(ctx,
			`UPDATE candidates SET url = ?, title = ?, snippet = ?, region = ?, category = ?
			 WHERE domain = ? AND status IN ('pending','evaluated','error')`,
			c.URL, nullIfEmpty(c.Title), nullIfEmpty(c.Snippet), nullIfEmpty(c.Region), nullIfEmpty(c.Category), c.Domain)
		if err != nil {
			return UpsertDroppedTerminal, err
		}
		if err = tx.Commit(); err != nil {
			return UpsertDroppedTerminal, err
		}
		return UpsertUpdated, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to the terminal check
	default:
		return UpsertDroppedTerminal, err
	}

	var terminalCount int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidates WHERE domain = ? AND status IN ('listed','rejected','skipped')`,
		c.Domain).Scan(&terminalCount); err != nil {
		return UpsertDroppedTerminal, err
	}
	if terminalCount > 0 {
		_ = tx.Rollback()
		return UpsertDroppedTerminal, nil
	}

	discoveredAt := c.DiscoveredAt
	if discoveredAt.IsZero() {
		discoveredAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidates(domain, url, title, snippet, region, category, status, discovered_at)
		 VALUES(?,?,?,?,?,?, 'pending', ?)`,
		c.Domain, c.URL, nullIfEmpty(c.Title), nullIfEmpty(c.Snippet), nullIfEmpty(c.Region), nullIfEmpty(c.Category), discoveredAt)
	if err != nil {
		return UpsertDroppedTerminal, err
	}
	if err = tx.Commit(); err != nil {
		return UpsertDroppedTerminal, err
	}
	return UpsertInserted, nil
}

// TransitionPayload carries the fields a transition may set.
type TransitionPayload struct {
	CrawledAt      time.Time
	Classification *Classification
	Contacts       *Contacts
	Error          string
}

// Transition moves the active candidate for domain to newStatus, validating
// the edge against the state machine. Payload fields are written alongside
// the status so the update is atomic.
func (d *DB) Transition(ctx context.Context, domain string, newStatus Status, payload TransitionPayload) error {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM candidates WHERE domain = ? AND status IN ('pending','evaluated','error') LIMIT 1`,
		domain).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: %s", ErrNoActiveCandidate, domain)
		return err
	}
	if err != nil {
		return err
	}

	if !transitionAllowed(Status(current), newStatus) {
		err = fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, current, newStatus, domain)
		return err
	}

	classJSON, err := marshalNullable(payload.Classification)
	if err != nil {
		return err
	}
	contactsJSON, err := marshalNullable(payload.Contacts)
	if err != nil {
		return err
	}

	var crawledAt interface{}
	if !payload.CrawledAt.IsZero() {
		crawledAt = payload.CrawledAt.UTC()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE candidates SET
		   status = ?,
		   crawled_at = COALESCE(?, crawled_at),
		   classification = COALESCE(?, classification),
		   contacts = COALESCE(?, contacts),
		   error = ?
		 WHERE domain = ? AND status = ?`,
		string(newStatus), crawledAt, classJSON, contactsJSON, nullIfEmpty(payload.Error), domain, current)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func marshalNullable(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case *Classification:
		if t == nil {
			return nil, nil
		}
	case *Contacts:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ListOptions controls selection when listing candidates.
type ListOptions struct {
	Status   Status
	Region   string
	Category string
	Domain   string
}

// ListCandidates returns candidates matching the filters, ordered by
// discovered_at ascending. Re-querying is side-effect free.
func (d *DB) ListCandidates(ctx context.Context, opts ListOptions) ([]Candidate, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Status != "" {
		where += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if opts.Region != "" {
		where += " AND region = ?"
		args = append(args, opts.Region)
	}
	if opts.Category != "" {
		where += " AND category = ?"
		args = append(args, opts.Category)
	}
	if opts.Domain != "" {
		where += " AND domain = ?"
		args = append(args, opts.Domain)
	}

	q := `SELECT domain, url, title, snippet, region, category, status, discovered_at, crawled_at, classification, contacts, error
	      FROM candidates ` + where + ` ORDER BY discovered_at ASC, id ASC`
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCandidate(rows *sql.Rows) (Candidate, error) {
	var c Candidate
	var title, snippet, region, category, classJSON, contactsJSON, errMsg sql.NullString
	var status string
	var discoveredAt time.Time
	var crawledAt sql.NullTime
	if err := rows.Scan(&c.Domain, &c.URL, &title, &snippet, &region, &category, &status,
		&discoveredAt, &crawledAt, &classJSON, &contactsJSON, &errMsg); err != nil {
		return Candidate{}, err
	}
	c.Title = title.String
	c.Snippet = snippet.String
	c.Region = region.String
	c.Category = category.String
	c.Status = Status(status)
	c.DiscoveredAt = discoveredAt
	if crawledAt.Valid {
		c.CrawledAt = crawledAt.Time
	}
	c.Error = errMsg.String
	if classJSON.Valid && classJSON.String != "" {
		var cl Classification
		if err := json.Unmarshal([]byte(classJSON.String), &cl); err == nil {
			c.Classification = &cl
		}
	}
	if contactsJSON.Valid && contactsJSON.String != "" {
		var ct Contacts
		if err := json.Unmarshal([]byte(contactsJSON.String), &ct); err == nil {
			c.Contacts = &ct
		}
	}
	return c, nil
}

// GetActiveCandidate returns the single active candidate for a domain, or
// ErrNoActiveCandidate.
func (d *DB) GetActiveCandidate(ctx context.Context, domain string) (Candidate, error) {
	list, err := d.ListCandidates(ctx, ListOptions{Domain: domain})
	if err != nil {
		return Candidate{}, err
	}
	for _, c := range list {
		if !c.Status.IsTerminal() {
			return c, nil
		}
	}
	return Candidate{}, fmt.Errorf("%w: %s", ErrNoActiveCandidate, domain)
}
