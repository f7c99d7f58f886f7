// Package regions loads the region and category configuration that drives
// discovery targeting.
package regions

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Region describes one geographic target.
type Region struct {
	Name        string   `yaml:"name"`
	SubRegions  []string `yaml:"sub_regions,omitempty"`
	SearchTerms []string `yaml:"search_terms"`
}

// Category describes one business niche.
type Category struct {
	SearchTerms []string `yaml:"search_terms"`
	Templates   []string `yaml:"templates,omitempty"`
}

// Config is the full region/category table, loaded once per run.
type Config struct {
	Regions    map[string]Region   `yaml:"regions"`
	Categories map[string]Category `yaml:"categories"`
}

// DefaultTemplates are query shapes used when a category defines none. %s
// receives the region search term.
var DefaultTemplates = []string{
	"%s",
	"in %s",
	"near %s",
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading regions file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing regions file: %w", err)
	}
	return &cfg, nil
}

// Default covers the Dallas-Fort Worth metro with a plumbing category.
// Real deployments supply their own file.
func Default() *Config {
	return &Config{
		Regions: map[string]Region{
			"dallas-tx": {
				Name:        "Dallas, TX",
				SubRegions:  []string{"plano-tx", "irving-tx"},
				SearchTerms: []string{"Dallas TX", "Dallas Texas"},
			},
			"plano-tx": {
				Name:        "Plano, TX",
				SearchTerms: []string{"Plano TX"},
			},
			"irving-tx": {
				Name:        "Irving, TX",
				SearchTerms: []string{"Irving TX"},
			},
		},
		Categories: map[string]Category{
			"plumbing": {
				SearchTerms: []string{"plumber", "plumbing company", "emergency plumber"},
			},
		},
	}
}

// Region returns the config for a region key.
func (c *Config) Region(key string) (Region, error) {
	r, ok := c.Regions[key]
	if !ok {
		return Region{}, fmt.Errorf("unknown region %q (have: %v)", key, c.RegionKeys())
	}
	return r, nil
}

// Category returns the config for a category key.
func (c *Config) Category(key string) (Category, error) {
	cat, ok := c.Categories[key]
	if !ok {
		return Category{}, fmt.Errorf("unknown category %q (have: %v)", key, c.CategoryKeys())
	}
	return cat, nil
}

// RegionTerms returns a region's search terms plus those of its
// sub-regions, in stable order.
func (c *Config) RegionTerms(key string) ([]string, error) {
	r, err := c.Region(key)
	if err != nil {
		return nil, err
	}
	terms := append([]string(nil), r.SearchTerms...)
	for _, sub := range r.SubRegions {
		if sr, ok := c.Regions[sub]; ok {
			terms = append(terms, sr.SearchTerms...)
		}
	}
	return terms, nil
}

// QueryTemplates returns the category's query templates or the defaults.
func (cat Category) QueryTemplates() []string {
	if len(cat.Templates) > 0 {
		return cat.Templates
	}
	return DefaultTemplates
}

// RegionKeys lists configured region keys, sorted.
func (c *Config) RegionKeys() []string {
	keys := make([]string, 0, len(c.Regions))
	for k := range c.Regions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CategoryKeys lists configured category keys, sorted.
func (c *Config) CategoryKeys() []string {
	keys := make([]string, 0, len(c.Categories))
	for k := range c.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
