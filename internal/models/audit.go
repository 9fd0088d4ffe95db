package models

import "time"

// PageSignals are the raw SEO/AI-overview signals extracted from one page.
type PageSignals struct {
	URL                    string `json:"url"`
	StatusCode             int    `json:"statusCode"`
	Title                  string `json:"title"`
	TitleLength            int    `json:"titleLength"`
	MetaDescription        string `json:"metaDescription"`
	MetaDescriptionLength  int    `json:"metaDescriptionLength"`
	Canonical              string `json:"canonical"`
	H1Count                int    `json:"h1Count"`
	WordCount              int    `json:"wordCount"`
	JSONLDBlocks           int    `json:"jsonldBlocks"`
	HasFAQSchema           bool   `json:"hasFaqSchema"`
	HasLocalBusinessSchema bool   `json:"hasLocalBusinessSchema"`
	HasOGTitle             bool   `json:"hasOgTitle"`
}

// Finding is one heuristic rule hit against a page.
type Finding struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"` // error | warning | info
	Message  string `json:"message"`
	URL      string `json:"url"`
}

// PageReport scores a single page.
type PageReport struct {
	Signals  PageSignals `json:"signals"`
	Score    int         `json:"score"`
	Findings []Finding   `json:"findings"`
}

// AuditRun is a persisted record of one site audit.
type AuditRun struct {
	ID           string       `json:"id"`
	SiteURL      string       `json:"siteUrl"`
	Score        int          `json:"score"`
	PagesCrawled int          `json:"pagesCrawled"`
	Pages        []PageReport `json:"pages"`
	CreatedAt    time.Time    `json:"createdAt"`
}
