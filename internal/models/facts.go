package models

// Address is a postal address for schema markup.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Service is a single offered service.
type Service struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// OpeningHours covers one span of opening days/times, e.g. Mo-Fr 09:00-17:00.
type OpeningHours struct {
	Days   string `json:"days"`
	Opens  string `json:"opens"`
	Closes string `json:"closes"`
}

// BusinessFacts is the validated, structured input the content generators
// work from. It is supplied by the caller and schema-validated before use.
type BusinessFacts struct {
	Name         string         `json:"name"`
	SiteURL      string         `json:"siteUrl"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Phone        string         `json:"phone"`
	Email        string         `json:"email"`
	Address      *Address       `json:"address,omitempty"`
	Services     []Service      `json:"services"`
	ServiceAreas []string       `json:"serviceAreas"`
	Hours        []OpeningHours `json:"hours"`
}

// PrimaryService returns the first service name, or "" if none.
func (f *BusinessFacts) PrimaryService() string {
	if len(f.Services) == 0 {
		return ""
	}
	return f.Services[0].Name
}
