package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("api key not sent: %s", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key")
	c.http.RetryMax = 0
	c.SetEndpoint(srv.URL)
	return c
}

func TestFindPlaces(t *testing.T) {
	body := `{"status":"OK","results":[
		{"place_id":"p1","name":"Joe's Plumbing","formatted_address":"123 Main St, Dallas, TX 75201",
		 "website":"https://joesplumbing.com","rating":4.8,"user_ratings_total":120,
		 "geometry":{"location":{"lat":32.78,"lng":-96.8}}},
		{"place_id":"p2","name":"Other Plumbing"}
	]}`

	c := serve(t, 200, body)
	got, err := c.FindPlaces(context.Background(), "joes plumbing dallas")
	if err != nil {
		t.Fatalf("FindPlaces: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d places", len(got))
	}

	p := got[0]
	if p.ID != "p1" || p.Name != "Joe's Plumbing" || p.Rating != 4.8 || p.ReviewCount != 120 {
		t.Errorf("fields not parsed: %+v", p)
	}
	if p.Lat != 32.78 || p.Lng != -96.8 {
		t.Errorf("coordinates not parsed: %+v", p)
	}
}

func TestFindPlacesZeroResults(t *testing.T) {
	c := serve(t, 200, `{"status":"ZERO_RESULTS","results":[]}`)
	got, err := c.FindPlaces(context.Background(), "nothing here")
	if err != nil {
		t.Fatalf("FindPlaces: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d places", len(got))
	}
}

func TestFindPlacesQuota(t *testing.T) {
	c := serve(t, 200, `{"status":"OVER_QUERY_LIMIT"}`)
	if _, err := c.FindPlaces(context.Background(), "q"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("got %v", err)
	}
}

func TestFindPlacesAPIError(t *testing.T) {
	c := serve(t, 200, `{"status":"REQUEST_DENIED","error_message":"API key invalid"}`)
	_, err := c.FindPlaces(context.Background(), "q")
	if err == nil || errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("got %v", err)
	}
}

func TestFindPlacesCapsAtFive(t *testing.T) {
	body := `{"status":"OK","results":[
		{"place_id":"1"},{"place_id":"2"},{"place_id":"3"},
		{"place_id":"4"},{"place_id":"5"},{"place_id":"6"},{"place_id":"7"}
	]}`

	c := serve(t, 200, body)
	got, err := c.FindPlaces(context.Background(), "q")
	if err != nil {
		t.Fatalf("FindPlaces: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("got %d places, want 5", len(got))
	}
}
