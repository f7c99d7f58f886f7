package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type stubClient struct {
	status int
	body   string
}

func (s *stubClient) Do(_ *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.body))),
	}, nil
}

func chatResponse(t *testing.T, content interface{}) string {
	t.Helper()
	inner, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshaling content: %v", err)
	}
	outer, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": string(inner)}},
		},
	})
	if err != nil {
		t.Fatalf("marshaling response: %v", err)
	}
	return string(outer)
}

func testDescriber(client httpClient) *openAIDescriber {
	return &openAIDescriber{
		apiKey:   "test-key",
		model:    defaultModel,
		endpoint: defaultEndpoint,
		client:   client,
	}
}

func TestDescribeHappyPath(t *testing.T) {
	body := chatResponse(t, map[string]interface{}{
		"summary":     "Family-owned plumbing company serving the Dallas area since 1985.",
		"description": strings.Repeat("Licensed plumbers handling repairs and installations. ", 4),
		"tags":        []string{"Plumbing", "drain cleaning", "plumbing", "water heaters"},
	})

	d := testDescriber(&stubClient{status: 200, body: body})
	got, err := d.Describe(context.Background(), Input{Name: "Joe's Plumbing", PageText: "text"})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.HasPrefix(got.Summary, "Family-owned") {
		t.Errorf("Summary = %q", got.Summary)
	}
	// Tags lowercased and deduplicated.
	if len(got.Tags) != 3 {
		t.Errorf("Tags = %v", got.Tags)
	}
	for _, tag := range got.Tags {
		if tag != strings.ToLower(tag) {
			t.Errorf("tag not lowercased: %q", tag)
		}
	}
}

func TestDescribeRejectsShortSummary(t *testing.T) {
	body := chatResponse(t, map[string]interface{}{
		"summary":     "Too short",
		"description": strings.Repeat("Long enough description text here. ", 4),
		"tags":        []string{"plumbing"},
	})

	d := testDescriber(&stubClient{status: 200, body: body})
	if _, err := d.Describe(context.Background(), Input{Name: "X", PageText: "text"}); err == nil {
		t.Fatal("short summary accepted")
	}
}

func TestDescribeRejectsMissingDescription(t *testing.T) {
	body := chatResponse(t, map[string]interface{}{
		"summary": "A perfectly reasonable summary for the listing.",
		"tags":    []string{"plumbing"},
	})

	d := testDescriber(&stubClient{status: 200, body: body})
	if _, err := d.Describe(context.Background(), Input{Name: "X", PageText: "text"}); err == nil {
		t.Fatal("missing description accepted")
	}
}

func TestDescribeCapsTags(t *testing.T) {
	tags := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8", "i9", "j10"}
	body := chatResponse(t, map[string]interface{}{
		"summary":     "Family-owned plumbing company serving the Dallas area.",
		"description": strings.Repeat("Licensed plumbers handling repairs. ", 4),
		"tags":        tags,
	})

	d := testDescriber(&stubClient{status: 200, body: body})
	got, err := d.Describe(context.Background(), Input{Name: "X", PageText: "text"})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if len(got.Tags) != maxTags {
		t.Errorf("got %d tags, want %d", len(got.Tags), maxTags)
	}
}

func TestDescribeSurfacesAPIError(t *testing.T) {
	d := testDescriber(&stubClient{status: 401, body: `{"error":{"message":"bad key"}}`})
	_, err := d.Describe(context.Background(), Input{Name: "X", PageText: "text"})
	if err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("got %v", err)
	}
}

func TestDescribeRejectsNonJSONContent(t *testing.T) {
	outer, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": "not json at all"}},
		},
	})

	d := testDescriber(&stubClient{status: 200, body: string(outer)})
	if _, err := d.Describe(context.Background(), Input{Name: "X", PageText: "text"}); err == nil {
		t.Fatal("non-JSON content accepted")
	}
}

func TestNewDescriberRequiresKey(t *testing.T) {
	if _, err := NewDescriber(Config{}); err == nil {
		t.Fatal("missing key accepted")
	}
	if _, err := NewDescriber(Config{Provider: "something-else", APIKey: "k"}); err == nil {
		t.Fatal("unknown provider accepted")
	}
}
