package storage

import "time"

// Status is the lifecycle state of a Candidate.
type Status string

const (
	StatusPending   Status = "pending"
	StatusEvaluated Status = "evaluated"
	StatusError     Status = "error"
	StatusListed    Status = "listed"
	StatusRejected  Status = "rejected"
	StatusSkipped   Status = "skipped"
)

// IsTerminal reports whether no further transitions are allowed.
// Terminal candidates are never deleted; they carry the dedup history.
func (s Status) IsTerminal() bool {
	return s == StatusListed || s == StatusRejected || s == StatusSkipped
}

// Candidate is a discovered URL under evaluation.
type Candidate struct {
	Domain       string
	URL          string
	Title        string
	Snippet      string
	Region       string
	Category     string
	Status       Status
	DiscoveredAt time.Time

	// Filled by the crawl stage.
	CrawledAt      time.Time
	Classification *Classification
	Contacts       *Contacts
	Error          string
}

// Classification is the crawl-content verdict for a candidate.
type Classification struct {
	IsRelevant       bool   `json:"isRelevant"`
	RelevanceScore   int    `json:"relevanceScore"`
	IsPotentialChain bool   `json:"isPotentialChain"`
	ChainScore       int    `json:"chainScore"`
	Confidence       string `json:"confidence"` // high | medium | low
}

// Contacts holds extracted contact fields for a site.
type Contacts struct {
	Phones  []string `json:"phones"`
	Emails  []string `json:"emails"`
	Address string   `json:"address,omitempty"`
	Social  []string `json:"social,omitempty"`
}

// Page is a single cleaned page inside a CrawledSite.
type Page struct {
	URL      string   `json:"url"`
	Kind     string   `json:"kind"` // home | contact | about | services
	Title    string   `json:"title,omitempty"`
	BodyText string   `json:"bodyText,omitempty"`
	Headings []string `json:"headings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// CrawledSite is the cached extraction result for a domain. It is stored
// independently of any Candidate so a killed run can be reconciled from it.
type CrawledSite struct {
	Domain    string    `json:"domain"`
	URL       string    `json:"url"`
	CrawledAt time.Time `json:"crawledAt"`
	Pages     []Page    `json:"pages"`
	Contacts  Contacts  `json:"contacts"`
	SiteName  string    `json:"siteName,omitempty"`
	MetaDesc  string    `json:"metaDesc,omitempty"`
}

// Issue severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Issue is a single audit finding on a Record.
type Issue struct {
	Severity string `json:"severity"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// Record is the canonical listing produced by the pipeline. Domain and Slug
// are both globally unique; Domain is the primary deduplication key.
type Record struct {
	Slug   string
	Domain string
	Name   string

	Website string
	City    string
	State   string
	Region  string

	// Contact fields. Email and Social are scrape-exclusive: no other
	// source ever supplies them.
	Phone   string
	Email   string
	Address string
	Social  []string

	// Content fields.
	Summary     string
	Description string
	Tags        []string

	// Enrichment fields, null until enriched.
	Rating           float64
	ReviewCount      int
	PlaceID          string
	Latitude         *float64
	Longitude        *float64
	ExternalVerified bool

	// Audit fields.
	NeedsReview  bool
	ReviewIssues []Issue
	LastAuditAt  time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
