package record

import (
	"context"
	"testing"

	"github.com/leadscope/leadscope/pkg/storage"
)

func TestResolveName(t *testing.T) {
	cases := []struct {
		name     string
		title    string
		siteName string
		domain   string
		want     string
	}{
		{
			"title head wins",
			"Joe's Plumbing | Dallas, TX Services", "Other Name", "joesplumbing.com",
			"Joe's Plumbing",
		},
		{
			"dash separator",
			"Joe's Plumbing - Emergency Service", "", "joesplumbing.com",
			"Joe's Plumbing",
		},
		{
			"phone-like title falls through",
			"(214) 555-0134", "Joe's Plumbing", "joesplumbing.com",
			"Joe's Plumbing",
		},
		{
			"cta title falls through",
			"Call Now | 24/7", "Joe's Plumbing", "joesplumbing.com",
			"Joe's Plumbing",
		},
		{
			"generic page word falls through",
			"Home", "Joe's Plumbing", "joesplumbing.com",
			"Joe's Plumbing",
		},
		{
			"bare domain title falls through",
			"joesplumbing.com", "Joe's Plumbing", "joesplumbing.com",
			"Joe's Plumbing",
		},
		{
			"domain derivation as last resort",
			"Welcome", "", "joes-plumbing.com",
			"Joes Plumbing",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ResolveName(c.title, c.siteName, c.domain)
			if got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestResolveNameNothingUsable(t *testing.T) {
	if got := ResolveName("Home", "", "ab.io"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestBaseSlug(t *testing.T) {
	got := BaseSlug("Joe's Plumbing", "Dallas", "TX")
	if got != "joes-plumbing-dallas-tx" {
		t.Errorf("got %q", got)
	}
	if got := BaseSlug("A & B Plumbing", "", ""); got != "a-b-plumbing" {
		t.Errorf("got %q", got)
	}
}

func TestSlugCollisionSuffix(t *testing.T) {
	taken := map[string]bool{
		"joes-plumbing-dallas-tx":   true,
		"joes-plumbing-dallas-tx-2": true,
	}
	exists := func(_ context.Context, slug string) (bool, error) {
		return taken[slug], nil
	}

	slug, err := uniqueSlug(context.Background(), "joes-plumbing-dallas-tx", exists)
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "joes-plumbing-dallas-tx-3" {
		t.Errorf("got %q, want joes-plumbing-dallas-tx-3", slug)
	}
}

func TestBuildRecord(t *testing.T) {
	cand := storage.Candidate{
		Domain:   "joesplumbing.com",
		URL:      "https://joesplumbing.com",
		Title:    "Joe's Plumbing | Dallas TX",
		Region:   "dallas-tx",
		Category: "plumbing",
		Contacts: &storage.Contacts{
			Phones:  []string{"(214) 555-0134"},
			Emails:  []string{"info@joesplumbing.com"},
			Address: "123 Main St, Dallas, TX 75201",
			Social:  []string{"https://facebook.com/joesplumbing"},
		},
	}
	site := &storage.CrawledSite{
		SiteName: "Joe's Plumbing",
		MetaDesc: "Licensed plumbers serving Dallas since 1985.",
	}

	rec, err := Build(context.Background(), cand, site, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if rec.Name != "Joe's Plumbing" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.Slug != "joes-plumbing-dallas-tx" {
		t.Errorf("Slug = %q", rec.Slug)
	}
	if rec.City != "Dallas" || rec.State != "TX" {
		t.Errorf("City/State = %q/%q", rec.City, rec.State)
	}
	if rec.Website != "https://joesplumbing.com" {
		t.Errorf("Website = %q", rec.Website)
	}
	if rec.Phone != "(214) 555-0134" || rec.Email != "info@joesplumbing.com" {
		t.Errorf("contacts not carried: %q %q", rec.Phone, rec.Email)
	}
	if rec.Summary != site.MetaDesc {
		t.Errorf("Summary = %q", rec.Summary)
	}
}

func TestBuildCityStateFromRegion(t *testing.T) {
	cand := storage.Candidate{
		Domain: "joesplumbing.com",
		Title:  "Joe's Plumbing",
		Region: "fort-worth-tx",
	}

	rec, err := Build(context.Background(), cand, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if rec.City != "Fort Worth" || rec.State != "TX" {
		t.Errorf("City/State = %q/%q", rec.City, rec.State)
	}
	if rec.Slug != "joes-plumbing-fort-worth-tx" {
		t.Errorf("Slug = %q", rec.Slug)
	}
}

func TestBuildInsufficientData(t *testing.T) {
	cand := storage.Candidate{Domain: "ab.io", Title: "Home"}
	if _, err := Build(context.Background(), cand, nil, nil); err != ErrInsufficientData {
		t.Errorf("got %v, want ErrInsufficientData", err)
	}
}

func processorFixture(t *testing.T) (*Processor, *storage.DB) {
	t.Helper()
	db, err := storage.Open(t.TempDir() + "/test.sqlite")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Processor{Store: db}, db
}

func seedEvaluated(t *testing.T, db *storage.DB, domain, title string, cls storage.Classification) {
	t.Helper()
	ctx := context.Background()
	_, err := db.UpsertCandidate(ctx, storage.Candidate{
		Domain:   domain,
		URL:      "https://" + domain,
		Title:    title,
		Region:   "dallas-tx",
		Category: "plumbing",
	})
	if err != nil {
		t.Fatalf("seeding candidate: %v", err)
	}
	err = db.Transition(ctx, domain, storage.StatusEvaluated, storage.TransitionPayload{
		Classification: &cls,
		Contacts:       &storage.Contacts{Phones: []string{"(214) 555-0134"}},
	})
	if err != nil {
		t.Fatalf("evaluating candidate: %v", err)
	}
}

func TestProcessListsRelevant(t *testing.T) {
	ctx := context.Background()
	p, db := processorFixture(t)
	seedEvaluated(t, db, "joesplumbing.com", "Joe's Plumbing | Dallas TX", storage.Classification{
		IsRelevant: true, RelevanceScore: 3, Confidence: "high",
	})

	sum, err := p.Process(ctx, ProcessOptions{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sum.Listed != 1 {
		t.Fatalf("summary %+v", sum)
	}

	rec, err := db.GetRecord(ctx, "joesplumbing.com")
	if err != nil {
		t.Fatalf("record not inserted: %v", err)
	}
	if rec.Slug != "joes-plumbing-dallas-tx" {
		t.Errorf("Slug = %q", rec.Slug)
	}
	if rec.Phone != "(214) 555-0134" {
		t.Errorf("Phone = %q", rec.Phone)
	}
}

func TestProcessRejectsIrrelevantAndChains(t *testing.T) {
	ctx := context.Background()
	p, db := processorFixture(t)
	seedEvaluated(t, db, "blog.com", "Plumbing Tips Blog", storage.Classification{
		IsRelevant: false, RelevanceScore: 1,
	})
	seedEvaluated(t, db, "bigchain.com", "Big Chain Plumbing", storage.Classification{
		IsRelevant: true, RelevanceScore: 4, IsPotentialChain: true, ChainScore: 3,
	})

	sum, err := p.Process(ctx, ProcessOptions{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sum.Rejected != 2 || sum.Listed != 0 {
		t.Errorf("summary %+v", sum)
	}

	if _, err := db.GetRecord(ctx, "bigchain.com"); err == nil {
		t.Error("chain got a record")
	}
}

func TestProcessRejectsInsufficientData(t *testing.T) {
	ctx := context.Background()
	p, db := processorFixture(t)
	seedEvaluated(t, db, "ab.io", "Home", storage.Classification{
		IsRelevant: true, RelevanceScore: 2,
	})

	sum, err := p.Process(ctx, ProcessOptions{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sum.Rejected != 1 {
		t.Errorf("summary %+v", sum)
	}
}

func TestProcessSlugCollisionGetsSuffix(t *testing.T) {
	ctx := context.Background()
	p, db := processorFixture(t)

	err := db.InsertRecord(ctx, storage.Record{
		Slug: "joes-plumbing-dallas-tx", Domain: "other.com", Name: "Joe's Plumbing",
	})
	if err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	seedEvaluated(t, db, "joesplumbing.com", "Joe's Plumbing | Dallas TX", storage.Classification{
		IsRelevant: true, RelevanceScore: 3,
	})
	if _, err := p.Process(ctx, ProcessOptions{}); err != nil {
		t.Fatalf("process: %v", err)
	}

	rec, err := db.GetRecord(ctx, "joesplumbing.com")
	if err != nil {
		t.Fatalf("record not inserted: %v", err)
	}
	if rec.Slug != "joes-plumbing-dallas-tx-2" {
		t.Errorf("Slug = %q, want joes-plumbing-dallas-tx-2", rec.Slug)
	}
}
