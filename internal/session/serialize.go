package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pagelift/pagelift/internal/models"
)

// Serialize converts a session to its persisted JSON form. Lossless for any
// valid session.
func Serialize(s *models.ReviewSession) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("serialize session: %w", err)
	}
	return string(data), nil
}

// sessionWire mirrors ReviewSession with pointer fields so that missing
// required keys are distinguishable from zero values.
type sessionWire struct {
	SessionID       *string               `json:"sessionId"`
	Status          *models.SessionStatus `json:"status"`
	SiteURL         *string               `json:"siteUrl"`
	SelectedTargets []string              `json:"selectedTargets"`
	TargetRepo      *models.TargetRepo    `json:"targetRepo"`
	PlannedFiles    *[]models.PlannedFile `json:"plannedFiles"`
	DiffPreviews    *[]models.DiffPreview `json:"diffPreviews"`
	Patches         *[]models.FilePatch   `json:"patches"`
	CreatedAt       *time.Time            `json:"createdAt"`
	ExpiresAt       *time.Time            `json:"expiresAt"`
	CommitShas      []string              `json:"commitShas"`
}

// Deserialize parses a persisted record. Returns nil — never panics — for
// syntactically invalid input or for input missing any required field.
func Deserialize(record string) *models.ReviewSession {
	var w sessionWire
	if err := json.Unmarshal([]byte(record), &w); err != nil {
		return nil
	}
	if w.SessionID == nil || w.Status == nil || w.SiteURL == nil ||
		w.CreatedAt == nil || w.ExpiresAt == nil || w.TargetRepo == nil ||
		w.PlannedFiles == nil || w.DiffPreviews == nil || w.Patches == nil {
		return nil
	}

	s := &models.ReviewSession{
		SessionID:       *w.SessionID,
		Status:          *w.Status,
		SiteURL:         *w.SiteURL,
		SelectedTargets: w.SelectedTargets,
		TargetRepo:      *w.TargetRepo,
		PlannedFiles:    *w.PlannedFiles,
		DiffPreviews:    *w.DiffPreviews,
		Patches:         *w.Patches,
		CreatedAt:       *w.CreatedAt,
		ExpiresAt:       *w.ExpiresAt,
		CommitShas:      w.CommitShas,
	}
	if s.CommitShas == nil {
		s.CommitShas = []string{}
	}
	return s
}
