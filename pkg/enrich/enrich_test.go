package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leadscope/leadscope/pkg/places"
	"github.com/leadscope/leadscope/pkg/storage"
)

type fakeProvider struct {
	results map[string][]places.Place
	err     error
	calls   []string
}

func (f *fakeProvider) FindPlaces(_ context.Context, query string) ([]places.Place, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	for _, results := range f.results {
		return results, nil
	}
	return nil, nil
}

func testEnricher(p places.Provider) *Enricher {
	return &Enricher{
		Provider: p,
		Delay:    time.Millisecond,
		sleep:    func(time.Duration) {},
	}
}

func TestDiceSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"Joe's Plumbing", "Joe's Plumbing", 1, 1},
		{"Joe's Plumbing", "Joes Plumbing LLC", 0.5, 1},
		{"Joe's Plumbing", "Dallas Tacos", 0, 0.3},
		{"", "", 0, 0},
		{"ab", "ab", 1, 1},
	}
	for _, c := range cases {
		got := DiceSimilarity(c.a, c.b)
		if got < c.min || got > c.max {
			t.Errorf("DiceSimilarity(%q, %q) = %v, want in [%v, %v]", c.a, c.b, got, c.min, c.max)
		}
	}
}

func TestEnrichDomainMatchWins(t *testing.T) {
	p := &fakeProvider{results: map[string][]places.Place{"q": {
		{ID: "p1", Name: "Totally Different Name", Website: "https://www.joesplumbing.com/", Rating: 4.8, ReviewCount: 120, Lat: 32.78, Lng: -96.8},
		{ID: "p2", Name: "Joe's Plumbing", Address: "Dallas, TX"},
	}}}

	rec := storage.Record{Domain: "joesplumbing.com", Name: "Joe's Plumbing", City: "Dallas"}
	if err := testEnricher(p).Enrich(context.Background(), &rec); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if rec.PlaceID != "p1" {
		t.Errorf("domain match should win: got %q", rec.PlaceID)
	}
}

func TestEnrichNameSimilarityRequiresCity(t *testing.T) {
	p := &fakeProvider{results: map[string][]places.Place{"q": {
		{ID: "wrong-city", Name: "Joe's Plumbing", Address: "100 Elm St, Houston, TX"},
		{ID: "right-city", Name: "Joes Plumbing LLC", Address: "123 Main St, Dallas, TX 75201"},
	}}}

	rec := storage.Record{Domain: "joesplumbing.com", Name: "Joe's Plumbing", City: "Dallas"}
	if err := testEnricher(p).Enrich(context.Background(), &rec); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if rec.PlaceID != "right-city" {
		t.Errorf("got %q", rec.PlaceID)
	}
}

func TestEnrichFillsButNeverOverwrites(t *testing.T) {
	p := &fakeProvider{results: map[string][]places.Place{"q": {{
		ID:          "p1",
		Name:        "Joe's Plumbing Co",
		Website:     "https://joesplumbing.com",
		Phone:       "(972) 555-2222",
		Address:     "999 Provider St, Dallas, TX 75999",
		Rating:      4.5,
		ReviewCount: 88,
		Lat:         32.78,
		Lng:         -96.8,
	}}}}

	rec := storage.Record{
		Domain:  "joesplumbing.com",
		Name:    "Joe's Plumbing",
		City:    "Dallas",
		Phone:   "(214) 555-0134",
		Address: "123 Main St, Dallas, TX 75201",
		Email:   "info@joesplumbing.com",
		Social:  []string{"https://facebook.com/joesplumbing"},
	}
	if err := testEnricher(p).Enrich(context.Background(), &rec); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	// Scraped phone and address stay; provider name and coordinates land.
	if rec.Phone != "(214) 555-0134" {
		t.Errorf("phone overwritten: %q", rec.Phone)
	}
	if rec.Address != "123 Main St, Dallas, TX 75201" {
		t.Errorf("address overwritten: %q", rec.Address)
	}
	if rec.Name != "Joe's Plumbing Co" {
		t.Errorf("name not overwritten: %q", rec.Name)
	}
	if rec.Latitude == nil || *rec.Latitude != 32.78 {
		t.Errorf("coordinates not written: %v", rec.Latitude)
	}
	if !rec.ExternalVerified || rec.Rating != 4.5 || rec.ReviewCount != 88 {
		t.Errorf("provider fields not merged: %+v", rec)
	}
	if rec.Email != "info@joesplumbing.com" || len(rec.Social) != 1 {
		t.Errorf("scrape-exclusive fields touched: %q %v", rec.Email, rec.Social)
	}
}

func TestEnrichFillsEmptyFields(t *testing.T) {
	p := &fakeProvider{results: map[string][]places.Place{"q": {{
		ID:      "p1",
		Name:    "Joe's Plumbing",
		Website: "https://joesplumbing.com",
		Phone:   "(972) 555-2222",
		Address: "999 Provider St, Dallas, TX 75999",
	}}}}

	rec := storage.Record{Domain: "joesplumbing.com", Name: "Joe's Plumbing", City: "Dallas"}
	if err := testEnricher(p).Enrich(context.Background(), &rec); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if rec.Phone != "(972) 555-2222" || rec.Address != "999 Provider St, Dallas, TX 75999" {
		t.Errorf("empty fields not filled: %q %q", rec.Phone, rec.Address)
	}
}

func TestEnrichNoMatch(t *testing.T) {
	p := &fakeProvider{}

	rec := storage.Record{Domain: "joesplumbing.com", Name: "Joe's Plumbing", City: "Dallas", ExternalVerified: true}
	err := testEnricher(p).Enrich(context.Background(), &rec)
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("got %v, want ErrNoMatch", err)
	}
	if rec.ExternalVerified {
		t.Error("unmatched record still verified")
	}
	if len(rec.ReviewIssues) != 1 || rec.ReviewIssues[0].Field != "enrichment" {
		t.Errorf("issue not recorded: %+v", rec.ReviewIssues)
	}

	// Re-enriching must not duplicate the issue.
	if err := testEnricher(p).Enrich(context.Background(), &rec); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("got %v", err)
	}
	if len(rec.ReviewIssues) != 1 {
		t.Errorf("issue duplicated: %+v", rec.ReviewIssues)
	}
}

func TestRunQuotaAbortsBatch(t *testing.T) {
	db, err := storage.Open(t.TempDir() + "/test.sqlite")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, d := range []string{"a.com", "b.com"} {
		if err := db.InsertRecord(ctx, storage.Record{Slug: d, Domain: d, Name: "N " + d}); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	p := &fakeProvider{err: places.ErrQuotaExceeded}
	e := testEnricher(p)
	e.Store = db

	_, err = e.Run(ctx, "")
	if !errors.Is(err, places.ErrQuotaExceeded) {
		t.Fatalf("got %v", err)
	}
	if len(p.calls) != 1 {
		t.Errorf("batch continued past quota error: %d calls", len(p.calls))
	}
}
