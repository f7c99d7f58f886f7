// Package ai generates listing copy from crawled site text via an LLM
// provider. Responses are untrusted structured input and are validated
// before anything reaches a record.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Description is the validated generation output for one business.
type Description struct {
	Summary     string
	Description string
	Tags        []string
}

// Input is what the model sees for one business.
type Input struct {
	Name     string
	City     string
	State    string
	Category string
	PageText string
}

// Config controls the describer.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
}

// Describer turns crawled site text into listing copy.
type Describer interface {
	Describe(ctx context.Context, in Input) (Description, error)
}

const (
	defaultProvider = "openai"
	defaultModel    = "gpt-4.1-mini"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"

	maxTags          = 8
	maxSummaryChars  = 300
	maxInputChars    = 12000
	minSummaryChars  = 20
	minDescriptionCh = 80
)

// NewDescriber builds a concrete Describer based on the provided config.
func NewDescriber(cfg Config) (Describer, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIDescriber(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIDescriber struct {
	apiKey   string
	model    string
	endpoint string
	client   httpClient
}

func newOpenAIDescriber(cfg Config) (*openAIDescriber, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("content generation requires an API key (set openai.api_key in config or OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	return &openAIDescriber{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   client,
	}, nil
}

// Describe queries the model and validates its output.
func (d *openAIDescriber) Describe(ctx context.Context, in Input) (Description, error) {
	text := in.PageText
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	payload := llmInput{
		Name:     in.Name,
		City:     in.City,
		State:    in.State,
		Category: in.Category,
		PageText: text,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Description{}, err
	}

	reqBody := openAIChatRequest{
		Model: d.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payloadJSON)},
		},
		Temperature:    0.4,
		ResponseFormat: openAIResponseFormat{Type: "json_object"},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Description{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return Description{}, err
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return Description{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErrResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErrResp)
		if apiErrResp.Error.Message != "" {
			return Description{}, fmt.Errorf("content generation: %s", apiErrResp.Error.Message)
		}
		return Description{}, fmt.Errorf("content generation failed with HTTP %d", resp.StatusCode)
	}

	var apiResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Description{}, err
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return Description{}, errors.New("content generation returned an empty response")
	}

	var parsed llmOutput
	if err := json.Unmarshal([]byte(apiResp.Choices[0].Message.Content), &parsed); err != nil {
		return Description{}, fmt.Errorf("unable to parse AI response: %w", err)
	}

	return validateOutput(parsed)
}

// validateOutput enforces the schema on model output before any merge.
func validateOutput(out llmOutput) (Description, error) {
	summary := strings.TrimSpace(out.Summary)
	desc := strings.TrimSpace(out.Description)

	if len(summary) < minSummaryChars {
		return Description{}, fmt.Errorf("generated summary too short (%d chars)", len(summary))
	}
	if len(summary) > maxSummaryChars {
		summary = summary[:maxSummaryChars]
	}
	if len(desc) < minDescriptionCh {
		return Description{}, fmt.Errorf("generated description too short (%d chars)", len(desc))
	}

	tags := make([]string, 0, len(out.Tags))
	seen := make(map[string]struct{})
	for _, t := range out.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > 40 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}

	return Description{Summary: summary, Description: desc, Tags: tags}, nil
}

const systemPrompt = `You write listing copy for a local business directory.

You receive one business as JSON: its name, city, state, category, and raw
text scraped from its website.

Write:
- "summary": one or two sentences, 20-300 characters, plain factual tone.
- "description": two or three short paragraphs describing the business and
  its services. No marketing superlatives, no invented facts. Only use
  details present in the provided text.
- "tags": 3-8 lowercase tags naming concrete services.

Return ONLY JSON following this schema:
{"summary": "string", "description": "string", "tags": ["string"]}`

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type llmInput struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	State    string `json:"state"`
	Category string `json:"category"`
	PageText string `json:"page_text"`
}

type llmOutput struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
