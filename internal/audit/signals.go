// Package audit fetches pages and scores their SEO/AI-overview readiness
// with heuristic rules over extracted HTML signals.
package audit

import (
	"encoding/json"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/pagelift/pagelift/internal/models"
)

// ExtractSignals parses an HTML document and pulls out the signals the
// scoring rules work from.
func ExtractSignals(url string, r io.Reader) (models.PageSignals, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return models.PageSignals{}, err
	}

	sig := models.PageSignals{URL: url}
	var wordCount int

	var walk func(n *html.Node, bodyCtx bool)
	walk = func(n *html.Node, bodyCtx bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				sig.Title = strings.TrimSpace(textContent(n))
			case "meta":
				name := attr(n, "name")
				prop := attr(n, "property")
				if strings.EqualFold(name, "description") {
					sig.MetaDescription = strings.TrimSpace(attr(n, "content"))
				}
				if strings.EqualFold(prop, "og:title") {
					sig.HasOGTitle = true
				}
			case "link":
				if strings.EqualFold(attr(n, "rel"), "canonical") {
					sig.Canonical = attr(n, "href")
				}
			case "h1":
				sig.H1Count++
			case "script":
				if strings.EqualFold(attr(n, "type"), "application/ld+json") {
					sig.JSONLDBlocks++
					classifyJSONLD(textContent(n), &sig)
				}
			case "body":
				bodyCtx = true
			}
		}
		if n.Type == html.TextNode && bodyCtx && n.Parent != nil &&
			n.Parent.Data != "script" && n.Parent.Data != "style" {
			wordCount += len(strings.Fields(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, bodyCtx)
		}
	}
	walk(doc, false)

	sig.WordCount = wordCount
	sig.TitleLength = len(sig.Title)
	sig.MetaDescriptionLength = len(sig.MetaDescription)
	return sig, nil
}

// classifyJSONLD flags the schema types the generators care about. A block
// may be a single object or an array of objects.
func classifyJSONLD(raw string, sig *models.PageSignals) {
	var single map[string]any
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		markType(single, sig)
		return
	}
	var many []map[string]any
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		for _, obj := range many {
			markType(obj, sig)
		}
	}
}

func markType(obj map[string]any, sig *models.PageSignals) {
	t, _ := obj["@type"].(string)
	switch t {
	case "FAQPage":
		sig.HasFAQSchema = true
	case "LocalBusiness":
		sig.HasLocalBusinessSchema = true
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		} else {
			sb.WriteString(textContent(c))
		}
	}
	return sb.String()
}
