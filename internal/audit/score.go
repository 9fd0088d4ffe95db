package audit

import (
	"fmt"

	"github.com/pagelift/pagelift/internal/models"
)

// rule is one scoring heuristic. Penalty is subtracted from a page's score
// when the rule fires.
type rule struct {
	name     string
	severity string
	penalty  int
	check    func(models.PageSignals) (bool, string)
}

// rules are applied in order; the order is stable so findings are
// deterministic for a given page.
var rules = []rule{
	{
		name: "missing-title", severity: "error", penalty: 15,
		check: func(s models.PageSignals) (bool, string) {
			if s.Title == "" {
				return true, "page has no <title>"
			}
			return false, ""
		},
	},
	{
		name: "title-too-short", severity: "warning", penalty: 5,
		check: func(s models.PageSignals) (bool, string) {
			if s.Title != "" && s.TitleLength < 30 {
				return true, fmt.Sprintf("title is %d characters; aim for 30-60", s.TitleLength)
			}
			return false, ""
		},
	},
	{
		name: "title-too-long", severity: "warning", penalty: 5,
		check: func(s models.PageSignals) (bool, string) {
			if s.TitleLength > 60 {
				return true, fmt.Sprintf("title is %d characters and will be cut off in results", s.TitleLength)
			}
			return false, ""
		},
	},
	{
		name: "missing-meta-description", severity: "error", penalty: 10,
		check: func(s models.PageSignals) (bool, string) {
			if s.MetaDescription == "" {
				return true, "page has no meta description"
			}
			return false, ""
		},
	},
	{
		name: "meta-description-too-long", severity: "warning", penalty: 3,
		check: func(s models.PageSignals) (bool, string) {
			if s.MetaDescriptionLength > 160 {
				return true, fmt.Sprintf("meta description is %d characters; aim for under 160", s.MetaDescriptionLength)
			}
			return false, ""
		},
	},
	{
		name: "missing-h1", severity: "error", penalty: 10,
		check: func(s models.PageSignals) (bool, string) {
			if s.H1Count == 0 {
				return true, "page has no <h1>"
			}
			return false, ""
		},
	},
	{
		name: "multiple-h1", severity: "warning", penalty: 3,
		check: func(s models.PageSignals) (bool, string) {
			if s.H1Count > 1 {
				return true, fmt.Sprintf("page has %d <h1> elements", s.H1Count)
			}
			return false, ""
		},
	},
	{
		name: "missing-canonical", severity: "info", penalty: 2,
		check: func(s models.PageSignals) (bool, string) {
			if s.Canonical == "" {
				return true, "page has no canonical link"
			}
			return false, ""
		},
	},
	{
		name: "no-structured-data", severity: "warning", penalty: 10,
		check: func(s models.PageSignals) (bool, string) {
			if s.JSONLDBlocks == 0 {
				return true, "page has no JSON-LD structured data"
			}
			return false, ""
		},
	},
	{
		name: "missing-faq-schema", severity: "info", penalty: 5,
		check: func(s models.PageSignals) (bool, string) {
			if s.JSONLDBlocks > 0 && !s.HasFAQSchema {
				return true, "structured data present but no FAQPage block; FAQ markup feeds AI overviews"
			}
			return false, ""
		},
	},
	{
		name: "missing-og-title", severity: "info", penalty: 2,
		check: func(s models.PageSignals) (bool, string) {
			if !s.HasOGTitle {
				return true, "page has no og:title"
			}
			return false, ""
		},
	},
	{
		name: "thin-content", severity: "warning", penalty: 10,
		check: func(s models.PageSignals) (bool, string) {
			if s.WordCount < 150 {
				return true, fmt.Sprintf("page body has only %d words", s.WordCount)
			}
			return false, ""
		},
	},
}

// ScorePage applies every rule to the signals and returns the page report.
// Scores are clamped to [0, 100].
func ScorePage(sig models.PageSignals) models.PageReport {
	score := 100
	var findings []models.Finding
	for _, r := range rules {
		hit, msg := r.check(sig)
		if !hit {
			continue
		}
		score -= r.penalty
		findings = append(findings, models.Finding{
			Rule:     r.name,
			Severity: r.severity,
			Message:  msg,
			URL:      sig.URL,
		})
	}
	if score < 0 {
		score = 0
	}
	return models.PageReport{Signals: sig, Score: score, Findings: findings}
}
