// Package generator turns validated business facts into SEO/AI-overview
// content: page titles, FAQ blocks, and JSON-LD schema markup. Everything
// here is a pure transform — no I/O, no ambient registries; the set of
// active generators is explicit configuration.
package generator

import "github.com/pagelift/pagelift/internal/models"

// Config selects which generators run and their output limits.
type Config struct {
	Titles bool
	FAQ    bool
	Schema bool

	MaxTitleLength           int // default 60
	MaxMetaDescriptionLength int // default 155
	MaxFAQItems              int // default 8
}

// DefaultConfig enables every generator with standard SERP limits.
func DefaultConfig() Config {
	return Config{Titles: true, FAQ: true, Schema: true}
}

func (c Config) withDefaults() Config {
	if c.MaxTitleLength <= 0 {
		c.MaxTitleLength = 60
	}
	if c.MaxMetaDescriptionLength <= 0 {
		c.MaxMetaDescriptionLength = 155
	}
	if c.MaxFAQItems <= 0 {
		c.MaxFAQItems = 8
	}
	return c
}

// Result is a tagged variant: either Skipped with a reason, or produced
// content with exactly one of the typed payloads set for its Kind.
type Result struct {
	Kind    models.ContentKind `json:"kind"`
	Skipped bool               `json:"skipped"`
	Reason  string             `json:"reason,omitempty"`

	Titles *TitleSet  `json:"titles,omitempty"`
	FAQ    *FAQSet    `json:"faq,omitempty"`
	Schema *SchemaSet `json:"schema,omitempty"`
}

func skipped(kind models.ContentKind, reason string) Result {
	return Result{Kind: kind, Skipped: true, Reason: reason}
}

// Pipeline runs the configured generators in a fixed order.
type Pipeline struct {
	cfg Config
}

// NewPipeline builds a pipeline from explicit configuration.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg.withDefaults()}
}

// Generate produces one Result per enabled generator, in title, FAQ, schema
// order. Disabled generators produce nothing; enabled generators that cannot
// work with the given facts produce a Skipped result naming the gap.
func (p *Pipeline) Generate(facts *models.BusinessFacts) []Result {
	var results []Result
	if p.cfg.Titles {
		results = append(results, p.generateTitles(facts))
	}
	if p.cfg.FAQ {
		results = append(results, p.generateFAQ(facts))
	}
	if p.cfg.Schema {
		results = append(results, p.generateSchema(facts))
	}
	return results
}
