package generator

import (
	"encoding/json"
	"fmt"

	"github.com/pagelift/pagelift/internal/models"
)

// SchemaSet is the produced JSON-LD markup, one document per block.
type SchemaSet struct {
	LocalBusiness string `json:"localBusiness"`
	FAQPage       string `json:"faqPage,omitempty"`
}

func (p *Pipeline) generateSchema(facts *models.BusinessFacts) Result {
	if facts.Name == "" || facts.SiteURL == "" {
		return skipped(models.ContentKindSchema, "facts missing name or site URL")
	}

	lb := map[string]any{
		"@context": "https://schema.org",
		"@type":    "LocalBusiness",
		"name":     facts.Name,
		"url":      facts.SiteURL,
	}
	if facts.Description != "" {
		lb["description"] = facts.Description
	}
	if facts.Phone != "" {
		lb["telephone"] = facts.Phone
	}
	if facts.Email != "" {
		lb["email"] = facts.Email
	}
	if facts.Address != nil {
		lb["address"] = map[string]any{
			"@type":           "PostalAddress",
			"streetAddress":   facts.Address.Street,
			"addressLocality": facts.Address.City,
			"addressRegion":   facts.Address.Region,
			"postalCode":      facts.Address.PostalCode,
			"addressCountry":  facts.Address.Country,
		}
	}
	if len(facts.ServiceAreas) > 0 {
		lb["areaServed"] = facts.ServiceAreas
	}
	if len(facts.Hours) > 0 {
		spans := make([]string, len(facts.Hours))
		for i, h := range facts.Hours {
			spans[i] = fmt.Sprintf("%s %s-%s", h.Days, h.Opens, h.Closes)
		}
		lb["openingHours"] = spans
	}
	if len(facts.Services) > 0 {
		offers := make([]map[string]any, len(facts.Services))
		for i, svc := range facts.Services {
			offer := map[string]any{
				"@type": "Offer",
				"itemOffered": map[string]any{
					"@type": "Service",
					"name":  svc.Name,
				},
			}
			offers[i] = offer
		}
		lb["makesOffer"] = offers
	}

	lbJSON, err := json.MarshalIndent(lb, "", "  ")
	if err != nil {
		return skipped(models.ContentKindSchema, fmt.Sprintf("marshal LocalBusiness: %v", err))
	}

	set := &SchemaSet{LocalBusiness: string(lbJSON)}

	// FAQPage markup reuses the FAQ generator so both surfaces stay in sync.
	if faq := p.generateFAQ(facts); !faq.Skipped && len(faq.FAQ.Items) > 0 {
		entities := make([]map[string]any, len(faq.FAQ.Items))
		for i, item := range faq.FAQ.Items {
			entities[i] = map[string]any{
				"@type": "Question",
				"name":  item.Question,
				"acceptedAnswer": map[string]any{
					"@type": "Answer",
					"text":  item.Answer,
				},
			}
		}
		fp := map[string]any{
			"@context":   "https://schema.org",
			"@type":      "FAQPage",
			"mainEntity": entities,
		}
		if fpJSON, err := json.MarshalIndent(fp, "", "  "); err == nil {
			set.FAQPage = string(fpJSON)
		}
	}

	return Result{Kind: models.ContentKindSchema, Schema: set}
}
