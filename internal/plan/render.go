package plan

import (
	"fmt"
	"html"
	"strings"

	"github.com/pagelift/pagelift/internal/generator"
	"github.com/pagelift/pagelift/internal/models"
)

// RenderPage composes generator output into a complete static HTML page.
// Used by the CLI plan flow when the target is a static site; framework
// targets (nextjs, astro) receive the same markup wrapped by the caller.
func RenderPage(facts *models.BusinessFacts, results []generator.Result) string {
	var titles *generator.TitleSet
	var faq *generator.FAQSet
	var schema *generator.SchemaSet
	for _, r := range results {
		if r.Skipped {
			continue
		}
		switch r.Kind {
		case models.ContentKindTitle:
			titles = r.Titles
		case models.ContentKindFAQ:
			faq = r.FAQ
		case models.ContentKindSchema:
			schema = r.Schema
		}
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")

	title := facts.Name
	if titles != nil {
		title = titles.Title
		fmt.Fprintf(&sb, "<meta name=\"description\" content=%q>\n", titles.MetaDescription)
		fmt.Fprintf(&sb, "<meta property=\"og:title\" content=%q>\n", titles.Title)
	}
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintf(&sb, "<link rel=\"canonical\" href=%q>\n", facts.SiteURL)

	if schema != nil {
		fmt.Fprintf(&sb, "<script type=\"application/ld+json\">\n%s\n</script>\n", schema.LocalBusiness)
		if schema.FAQPage != "" {
			fmt.Fprintf(&sb, "<script type=\"application/ld+json\">\n%s\n</script>\n", schema.FAQPage)
		}
	}

	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(title))
	if facts.Description != "" {
		fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(facts.Description))
	}

	if faq != nil && len(faq.Items) > 0 {
		sb.WriteString("<section id=\"faq\">\n<h2>Frequently Asked Questions</h2>\n")
		for _, item := range faq.Items {
			fmt.Fprintf(&sb, "<h3>%s</h3>\n<p>%s</p>\n",
				html.EscapeString(item.Question), html.EscapeString(item.Answer))
		}
		sb.WriteString("</section>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
