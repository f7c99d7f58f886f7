// Package audit evaluates records against a declarative rule table and
// aggregates quality reports. Auditing never fails a record; it only
// annotates it.
package audit

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/storage"
)

// Rule checks one field of a record.
type Rule struct {
	Field     string `yaml:"field"`
	Severity  string `yaml:"severity"`
	Check     string `yaml:"check"` // required | min_length | min_count
	Threshold int    `yaml:"threshold,omitempty"`
	Message   string `yaml:"message"`
}

// DefaultRules is the built-in table, used when no rules file is given.
func DefaultRules() []Rule {
	return []Rule{
		{Field: "name", Severity: storage.SeverityCritical, Check: "required", Message: "missing business name"},
		{Field: "city", Severity: storage.SeverityWarning, Check: "required", Message: "missing city"},
		{Field: "phone", Severity: storage.SeverityWarning, Check: "required", Message: "missing phone number"},
		{Field: "address", Severity: storage.SeverityWarning, Check: "required", Message: "missing street address"},
		{Field: "external_verified", Severity: storage.SeverityWarning, Check: "required", Message: "not externally verified"},
		{Field: "email", Severity: storage.SeverityInfo, Check: "required", Message: "missing email"},
		{Field: "summary", Severity: storage.SeverityWarning, Check: "min_length", Threshold: 20, Message: "summary missing or too short"},
		{Field: "description", Severity: storage.SeverityInfo, Check: "min_length", Threshold: 80, Message: "description missing or too short"},
		{Field: "tags", Severity: storage.SeverityInfo, Check: "min_count", Threshold: 3, Message: "fewer than 3 tags"},
	}
}

// LoadRules reads a YAML rule table.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return rules, nil
}

// Audit evaluates every rule, replaces ReviewIssues wholesale, and updates
// NeedsReview and LastAuditAt. Running it twice on an unchanged record
// yields the same issues.
func Audit(rec *storage.Record, rules []Rule) {
	var issues []storage.Issue
	for _, r := range rules {
		if issue, ok := evaluate(rec, r); ok {
			issues = append(issues, issue)
		}
	}

	rec.ReviewIssues = issues
	rec.NeedsReview = false
	for _, i := range issues {
		if i.Severity == storage.SeverityCritical || i.Severity == storage.SeverityWarning {
			rec.NeedsReview = true
			break
		}
	}
	rec.LastAuditAt = time.Now().UTC()
}

// evaluate returns an issue when the rule fails. Unknown fields or checks
// are skipped, never fatal.
func evaluate(rec *storage.Record, r Rule) (storage.Issue, bool) {
	str, list, known := fieldValue(rec, r.Field)
	if !known {
		utils.Log.Debugf("audit: unknown field %q, skipping rule", r.Field)
		return storage.Issue{}, false
	}

	var failed bool
	switch r.Check {
	case "required":
		failed = str == "" && len(list) == 0
	case "min_length":
		failed = len(str) < r.Threshold
	case "min_count":
		failed = len(list) < r.Threshold
	default:
		utils.Log.Debugf("audit: unknown check %q, skipping rule", r.Check)
		return storage.Issue{}, false
	}

	if !failed {
		return storage.Issue{}, false
	}
	return storage.Issue{Severity: r.Severity, Field: r.Field, Message: r.Message}, true
}

// fieldValue exposes auditable record fields by name. Scalar fields return
// via str, list fields via list.
func fieldValue(rec *storage.Record, field string) (str string, list []string, known bool) {
	switch field {
	case "name":
		return rec.Name, nil, true
	case "city":
		return rec.City, nil, true
	case "state":
		return rec.State, nil, true
	case "phone":
		return rec.Phone, nil, true
	case "email":
		return rec.Email, nil, true
	case "address":
		return rec.Address, nil, true
	case "website":
		return rec.Website, nil, true
	case "summary":
		return rec.Summary, nil, true
	case "description":
		return rec.Description, nil, true
	case "tags":
		return "", rec.Tags, true
	case "social":
		return "", rec.Social, true
	case "external_verified":
		if rec.ExternalVerified {
			return strconv.FormatBool(true), nil, true
		}
		return "", nil, true
	default:
		return "", nil, false
	}
}
