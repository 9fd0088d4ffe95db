package generator

import (
	"fmt"
	"strings"

	"github.com/pagelift/pagelift/internal/models"
)

// FAQItem is a single question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQSet is the produced FAQ content for a site.
type FAQSet struct {
	Items []FAQItem `json:"items"`
}

func (p *Pipeline) generateFAQ(facts *models.BusinessFacts) Result {
	if len(facts.Services) == 0 && len(facts.ServiceAreas) == 0 && len(facts.Hours) == 0 {
		return skipped(models.ContentKindFAQ, "facts contain no services, areas, or hours")
	}

	var items []FAQItem

	if len(facts.Services) > 0 {
		names := make([]string, len(facts.Services))
		for i, svc := range facts.Services {
			names[i] = svc.Name
		}
		items = append(items, FAQItem{
			Question: fmt.Sprintf("What services does %s offer?", facts.Name),
			Answer:   fmt.Sprintf("%s offers %s.", facts.Name, strings.Join(names, ", ")),
		})
		for _, svc := range facts.Services {
			if svc.Description == "" {
				continue
			}
			items = append(items, FAQItem{
				Question: fmt.Sprintf("Does %s provide %s?", facts.Name, strings.ToLower(svc.Name)),
				Answer:   fmt.Sprintf("Yes. %s", svc.Description),
			})
		}
	}

	if len(facts.ServiceAreas) > 0 {
		items = append(items, FAQItem{
			Question: fmt.Sprintf("What areas does %s serve?", facts.Name),
			Answer:   fmt.Sprintf("%s serves %s.", facts.Name, joinAreas(facts.ServiceAreas)),
		})
	}

	if len(facts.Hours) > 0 {
		spans := make([]string, len(facts.Hours))
		for i, h := range facts.Hours {
			spans[i] = fmt.Sprintf("%s %s-%s", h.Days, h.Opens, h.Closes)
		}
		items = append(items, FAQItem{
			Question: fmt.Sprintf("What are %s's opening hours?", facts.Name),
			Answer:   fmt.Sprintf("Opening hours are %s.", strings.Join(spans, ", ")),
		})
	}

	if facts.Phone != "" {
		items = append(items, FAQItem{
			Question: fmt.Sprintf("How can I contact %s?", facts.Name),
			Answer:   contactAnswer(facts),
		})
	}

	if len(items) > p.cfg.MaxFAQItems {
		items = items[:p.cfg.MaxFAQItems]
	}

	return Result{Kind: models.ContentKindFAQ, FAQ: &FAQSet{Items: items}}
}

func contactAnswer(facts *models.BusinessFacts) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Call %s", facts.Phone))
	if facts.Email != "" {
		sb.WriteString(fmt.Sprintf(" or email %s", facts.Email))
	}
	sb.WriteString(".")
	return sb.String()
}
