package generator

import (
	"fmt"
	"strings"

	"github.com/pagelift/pagelift/internal/models"
)

// TitleSet is the produced title content for a page.
type TitleSet struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	Variants        []string `json:"variants"`
}

func (p *Pipeline) generateTitles(facts *models.BusinessFacts) Result {
	if facts.Name == "" {
		return skipped(models.ContentKindTitle, "facts missing business name")
	}

	city := ""
	if facts.Address != nil {
		city = facts.Address.City
	}
	service := facts.PrimaryService()

	var variants []string
	switch {
	case service != "" && city != "":
		variants = append(variants,
			fmt.Sprintf("%s | %s in %s", facts.Name, service, city),
			fmt.Sprintf("%s in %s - %s", service, city, facts.Name),
			fmt.Sprintf("%s - %s, %s", facts.Name, service, city),
		)
	case service != "":
		variants = append(variants,
			fmt.Sprintf("%s | %s", facts.Name, service),
			fmt.Sprintf("%s - %s", service, facts.Name),
		)
	case city != "":
		variants = append(variants, fmt.Sprintf("%s | %s", facts.Name, city))
	default:
		variants = append(variants, facts.Name)
	}

	for i, v := range variants {
		variants[i] = truncateAtWord(v, p.cfg.MaxTitleLength)
	}

	return Result{
		Kind: models.ContentKindTitle,
		Titles: &TitleSet{
			Title:           variants[0],
			MetaDescription: p.metaDescription(facts, service, city),
			Variants:        variants,
		},
	}
}

func (p *Pipeline) metaDescription(facts *models.BusinessFacts, service, city string) string {
	var sb strings.Builder
	if facts.Description != "" {
		sb.WriteString(facts.Description)
	} else {
		sb.WriteString(facts.Name)
		if service != "" {
			sb.WriteString(" offers ")
			sb.WriteString(strings.ToLower(service))
		}
		if city != "" {
			sb.WriteString(" in ")
			sb.WriteString(city)
		}
		sb.WriteString(".")
	}
	if len(facts.ServiceAreas) > 0 {
		sb.WriteString(" Serving ")
		sb.WriteString(joinAreas(facts.ServiceAreas))
		sb.WriteString(".")
	}
	if facts.Phone != "" {
		sb.WriteString(" Call ")
		sb.WriteString(facts.Phone)
		sb.WriteString(".")
	}
	return truncateAtWord(sb.String(), p.cfg.MaxMetaDescriptionLength)
}

// joinAreas renders up to three service areas as natural-language prose.
func joinAreas(areas []string) string {
	if len(areas) > 3 {
		areas = areas[:3]
	}
	switch len(areas) {
	case 1:
		return areas[0]
	case 2:
		return areas[0] + " and " + areas[1]
	default:
		return strings.Join(areas[:len(areas)-1], ", ") + ", and " + areas[len(areas)-1]
	}
}

// truncateAtWord cuts s to at most max characters, backing up to the last
// word boundary and appending an ellipsis when a cut happened.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max-1]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:-") + "…"
}
