// Package classify scores crawled site text against configurable keyword
// lists. Matching runs on an Aho-Corasick automaton so large keyword sets
// stay a single pass over the text.
package classify

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"

	"github.com/leadscope/leadscope/pkg/storage"
)

// Confidence labels on a Classification.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Config holds the keyword lists and thresholds. Thresholds count distinct
// matched keywords, not total occurrences.
type Config struct {
	NicheKeywords []string `yaml:"niche_keywords"`
	ChainKeywords []string `yaml:"chain_keywords"`

	RelevanceMin      int `yaml:"relevance_min"`
	HighConfidenceMin int `yaml:"high_confidence_min"`
	ChainMin          int `yaml:"chain_min"`
}

// DefaultConfig targets local service businesses. Deployments tune the
// keyword lists per niche through the config file.
func DefaultConfig() Config {
	return Config{
		NicheKeywords: []string{
			"plumbing", "plumber", "drain cleaning", "water heater",
			"leak repair", "sewer line", "pipe repair", "emergency service",
			"licensed and insured", "free estimate", "repipe", "sump pump",
		},
		ChainKeywords: []string{
			"franchise", "locations nationwide", "find a location",
			"locally owned franchise", "corporate office", "all locations",
			"our locations", "franchising opportunities",
		},
		RelevanceMin:      2,
		HighConfidenceMin: 3,
		ChainMin:          2,
	}
}

// LoadConfig reads a YAML keyword config. Zero thresholds fall back to the
// defaults so a file can override just the keyword lists.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading classify config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing classify config: %w", err)
	}
	def := DefaultConfig()
	if cfg.RelevanceMin <= 0 {
		cfg.RelevanceMin = def.RelevanceMin
	}
	if cfg.HighConfidenceMin <= 0 {
		cfg.HighConfidenceMin = def.HighConfidenceMin
	}
	if cfg.ChainMin <= 0 {
		cfg.ChainMin = def.ChainMin
	}
	return cfg, nil
}

// Classifier scores text against one compiled Config.
type Classifier struct {
	cfg          Config
	nicheMatcher *ahocorasick.Matcher
	chainMatcher *ahocorasick.Matcher
}

// New compiles the config's keyword lists.
func New(cfg Config) *Classifier {
	c := &Classifier{cfg: cfg}
	if kws := normalizeKeywords(cfg.NicheKeywords); len(kws) > 0 {
		c.nicheMatcher = ahocorasick.NewStringMatcher(kws)
	}
	if kws := normalizeKeywords(cfg.ChainKeywords); len(kws) > 0 {
		c.chainMatcher = ahocorasick.NewStringMatcher(kws)
	}
	return c
}

// Classify scores a crawled site. Every successful page's title, headings
// and body contribute to one combined text; pages that errored contribute
// nothing.
func (c *Classifier) Classify(site *storage.CrawledSite) storage.Classification {
	var b strings.Builder
	for _, p := range site.Pages {
		if p.Error != "" {
			continue
		}
		b.WriteString(p.Title)
		b.WriteByte(' ')
		b.WriteString(strings.Join(p.Headings, " "))
		b.WriteByte(' ')
		b.WriteString(p.BodyText)
		b.WriteByte(' ')
	}
	return c.ClassifyText(b.String())
}

// ClassifyText scores raw text directly.
func (c *Classifier) ClassifyText(text string) storage.Classification {
	normalized := []byte(normalizeText(text))

	cls := storage.Classification{Confidence: ConfidenceLow}
	cls.RelevanceScore = matchCount(c.nicheMatcher, normalized)
	cls.ChainScore = matchCount(c.chainMatcher, normalized)

	cls.IsRelevant = cls.RelevanceScore >= c.cfg.RelevanceMin
	cls.IsPotentialChain = cls.ChainScore >= c.cfg.ChainMin

	switch {
	case cls.RelevanceScore >= c.cfg.HighConfidenceMin:
		cls.Confidence = ConfidenceHigh
	case cls.IsRelevant:
		cls.Confidence = ConfidenceMedium
	}
	return cls
}

// matchCount returns the number of distinct dictionary entries found.
func matchCount(m *ahocorasick.Matcher, text []byte) int {
	if m == nil {
		return 0
	}
	return len(m.Match(text))
}

func normalizeKeywords(kws []string) []string {
	out := make([]string, 0, len(kws))
	for _, kw := range kws {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// normalizeText lowercases and collapses punctuation to spaces so keyword
// phrases match across formatting differences.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return b.String()
}
