package models

import "time"

// ContentKind identifies a generated content artifact.
type ContentKind string

const (
	ContentKindTitle  ContentKind = "title"
	ContentKindFAQ    ContentKind = "faq"
	ContentKindSchema ContentKind = "schema"
)

// ContentRecord is a persisted generated-content artifact, kept so a plan can
// be rebuilt or compared against a previous generation.
type ContentRecord struct {
	ID        string      `json:"id"`
	SiteURL   string      `json:"siteUrl"`
	Kind      ContentKind `json:"kind"`
	Target    string      `json:"target"` // route or page the content is for
	Payload   string      `json:"payload"`
	CreatedAt time.Time   `json:"createdAt"`
}
