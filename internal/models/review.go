package models

import "time"

// SessionStatus represents the state of a review session.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusApproved SessionStatus = "approved"
	SessionStatusApplied  SessionStatus = "applied"
	SessionStatusExpired  SessionStatus = "expired"
)

// FileAction describes what a planned change does to a file.
type FileAction string

const (
	FileActionCreate FileAction = "create"
	FileActionUpdate FileAction = "update"
	FileActionDelete FileAction = "delete"
)

// Valid reports whether the action is one of the known values.
func (a FileAction) Valid() bool {
	switch a {
	case FileActionCreate, FileActionUpdate, FileActionDelete:
		return true
	}
	return false
}

// TargetRepo describes the external repository a session writes back to.
type TargetRepo struct {
	Owner        string `json:"owner"`
	Repo         string `json:"repo"`
	Branch       string `json:"branch"`
	ProjectType  string `json:"projectType"`  // static | nextjs | astro
	RouteMapping string `json:"routeMapping"` // strategy hint, defaults to ProjectType
}

// PlannedFile is one file-level entry of a change plan, shown to the reviewer.
type PlannedFile struct {
	URL                 string     `json:"url"`
	FilePath            string     `json:"filePath"`
	Action              FileAction `json:"action"`
	HumanReviewRequired bool       `json:"humanReviewRequired"`
	ReviewNotes         []string   `json:"reviewNotes"`
}

// DiffPreview is a rendered diff for reviewer inspection. Informational only;
// the patch payload is what actually gets written.
type DiffPreview struct {
	FilePath  string     `json:"filePath"`
	Action    FileAction `json:"action"`
	Diff      string     `json:"diff"`
	Truncated bool       `json:"truncated"`
}

// FilePatch is the write payload for a single file. OriginalContent is nil
// for newly created files.
type FilePatch struct {
	URL             string  `json:"url"`
	FilePath        string  `json:"filePath"`
	NewContent      string  `json:"newContent"`
	OriginalContent *string `json:"originalContent"`
}

// PlanInput is the caller-supplied change plan a review session is created from.
type PlanInput struct {
	SiteURL         string        `json:"siteUrl"`
	SelectedTargets []string      `json:"selectedTargets"`
	TargetRepo      TargetRepo    `json:"targetRepo"`
	PlannedFiles    []PlannedFile `json:"plannedFiles"`
	DiffPreviews    []DiffPreview `json:"diffPreviews"`
	Patches         []FilePatch   `json:"patches"`
}

// ReviewSession tracks a proposed set of file patches through review to
// application. Everything except Status and CommitShas is immutable after
// creation.
type ReviewSession struct {
	SessionID       string        `json:"sessionId"`
	Status          SessionStatus `json:"status"`
	SiteURL         string        `json:"siteUrl"`
	SelectedTargets []string      `json:"selectedTargets"`
	TargetRepo      TargetRepo    `json:"targetRepo"`
	PlannedFiles    []PlannedFile `json:"plannedFiles"`
	DiffPreviews    []DiffPreview `json:"diffPreviews"`
	Patches         []FilePatch   `json:"patches"`
	CreatedAt       time.Time     `json:"createdAt"`
	ExpiresAt       time.Time     `json:"expiresAt"`
	CommitShas      []string      `json:"commitShas"`
}
