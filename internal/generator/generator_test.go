package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/models"
)

func fullFacts() *models.BusinessFacts {
	return &models.BusinessFacts{
		Name:        "Acme Plumbing",
		SiteURL:     "https://acmeplumbing.example",
		Description: "Family-owned plumbing company serving central Illinois since 1987.",
		Phone:       "+1-555-0142",
		Email:       "office@acmeplumbing.example",
		Address: &models.Address{
			Street: "12 Main St", City: "Springfield", Region: "IL", PostalCode: "62701", Country: "US",
		},
		Services: []models.Service{
			{Name: "Drain Cleaning", Description: "Hydro-jetting and rooter service."},
			{Name: "Water Heater Repair"},
		},
		ServiceAreas: []string{"Springfield", "Shelbyville", "Capital City"},
		Hours:        []models.OpeningHours{{Days: "Mo-Fr", Opens: "08:00", Closes: "17:00"}},
	}
}

func resultByKind(t *testing.T, results []Result, kind models.ContentKind) Result {
	t.Helper()
	for _, r := range results {
		if r.Kind == kind {
			return r
		}
	}
	t.Fatalf("no result of kind %s", kind)
	return Result{}
}

func TestPipelineRunsConfiguredGenerators(t *testing.T) {
	p := NewPipeline(Config{Titles: true})
	results := p.Generate(fullFacts())
	require.Len(t, results, 1)
	assert.Equal(t, models.ContentKindTitle, results[0].Kind)

	p = NewPipeline(DefaultConfig())
	results = p.Generate(fullFacts())
	assert.Len(t, results, 3)
}

func TestTitleGeneration(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	r := resultByKind(t, p.Generate(fullFacts()), models.ContentKindTitle)

	require.False(t, r.Skipped)
	require.NotNil(t, r.Titles)
	assert.Equal(t, "Acme Plumbing | Drain Cleaning in Springfield", r.Titles.Title)
	assert.LessOrEqual(t, len(r.Titles.Title), 60)
	assert.NotEmpty(t, r.Titles.Variants)
	assert.NotEmpty(t, r.Titles.MetaDescription)
	assert.LessOrEqual(t, len(r.Titles.MetaDescription), 158, "meta description stays near the SERP limit")
}

func TestTitleTruncation(t *testing.T) {
	p := NewPipeline(Config{Titles: true, MaxTitleLength: 25})
	facts := fullFacts()
	r := resultByKind(t, p.Generate(facts), models.ContentKindTitle)

	require.NotNil(t, r.Titles)
	for _, v := range r.Titles.Variants {
		assert.LessOrEqual(t, len(v), 28, "truncated variant %q", v)
	}
	assert.True(t, strings.HasSuffix(r.Titles.Title, "…"))
}

func TestTitleSkippedWithoutName(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	r := resultByKind(t, p.Generate(&models.BusinessFacts{SiteURL: "https://x.example"}), models.ContentKindTitle)

	assert.True(t, r.Skipped)
	assert.Contains(t, r.Reason, "name")
	assert.Nil(t, r.Titles)
}

func TestFAQGeneration(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	r := resultByKind(t, p.Generate(fullFacts()), models.ContentKindFAQ)

	require.False(t, r.Skipped)
	require.NotNil(t, r.FAQ)
	require.NotEmpty(t, r.FAQ.Items)

	questions := make([]string, len(r.FAQ.Items))
	for i, item := range r.FAQ.Items {
		questions[i] = item.Question
		assert.NotEmpty(t, item.Answer)
	}
	assert.Contains(t, questions, "What services does Acme Plumbing offer?")
	assert.Contains(t, questions, "What areas does Acme Plumbing serve?")
	assert.Contains(t, questions, "What are Acme Plumbing's opening hours?")
}

func TestFAQItemCap(t *testing.T) {
	p := NewPipeline(Config{FAQ: true, MaxFAQItems: 2})
	r := resultByKind(t, p.Generate(fullFacts()), models.ContentKindFAQ)
	require.NotNil(t, r.FAQ)
	assert.Len(t, r.FAQ.Items, 2)
}

func TestFAQSkippedWithoutMaterial(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	facts := &models.BusinessFacts{Name: "Acme", SiteURL: "https://x.example"}
	r := resultByKind(t, p.Generate(facts), models.ContentKindFAQ)

	assert.True(t, r.Skipped)
	assert.Contains(t, r.Reason, "no services")
}

func TestSchemaGeneration(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	r := resultByKind(t, p.Generate(fullFacts()), models.ContentKindSchema)

	require.False(t, r.Skipped)
	require.NotNil(t, r.Schema)

	var lb map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Schema.LocalBusiness), &lb))
	assert.Equal(t, "LocalBusiness", lb["@type"])
	assert.Equal(t, "Acme Plumbing", lb["name"])
	assert.Equal(t, "https://schema.org", lb["@context"])

	addr, ok := lb["address"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Springfield", addr["addressLocality"])

	var fp map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Schema.FAQPage), &fp))
	assert.Equal(t, "FAQPage", fp["@type"])
	entities, ok := fp["mainEntity"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, entities)
}

func TestSchemaOmitsFAQPageWithoutMaterial(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	facts := &models.BusinessFacts{Name: "Acme", SiteURL: "https://x.example"}
	r := resultByKind(t, p.Generate(facts), models.ContentKindSchema)

	require.False(t, r.Skipped)
	assert.Empty(t, r.Schema.FAQPage)
}
