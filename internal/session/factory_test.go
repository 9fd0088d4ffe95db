package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/models"
)

func validPlanInput() models.PlanInput {
	return models.PlanInput{
		SiteURL:         "https://acmeplumbing.example",
		SelectedTargets: []string{"/"},
		TargetRepo:      models.TargetRepo{Owner: "acme", Repo: "acme-site", Branch: "main", ProjectType: "static"},
		PlannedFiles: []models.PlannedFile{
			{URL: "https://acmeplumbing.example/", FilePath: "public/index.html", Action: models.FileActionUpdate},
		},
		DiffPreviews: []models.DiffPreview{
			{FilePath: "public/index.html", Action: models.FileActionUpdate, Diff: "-a\n+b\n"},
		},
		Patches: []models.FilePatch{
			{URL: "https://acmeplumbing.example/", FilePath: "public/index.html", NewContent: "<html/>"},
		},
	}
}

func TestNewReviewSession(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := NewReviewSession(validPlanInput(), now, 0)

	_, err := uuid.Parse(s.SessionID)
	require.NoError(t, err, "session id must be a UUID")

	assert.Equal(t, models.SessionStatusPending, s.Status)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now.Add(DefaultTTL), s.ExpiresAt)
	assert.True(t, s.ExpiresAt.After(s.CreatedAt))
	assert.NotNil(t, s.CommitShas)
	assert.Empty(t, s.CommitShas)
}

func TestNewReviewSessionUniqueIDs(t *testing.T) {
	now := time.Now()
	in := validPlanInput()

	seen := make(map[string]bool)
	for range 50 {
		s := NewReviewSession(in, now, time.Hour)
		assert.False(t, seen[s.SessionID], "session ids must never repeat")
		seen[s.SessionID] = true
	}
}

func TestNewReviewSessionCustomTTL(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := NewReviewSession(validPlanInput(), now, time.Hour)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
}

func TestValidatePlanInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.PlanInput)
		wantMsg string
	}{
		{"valid", func(in *models.PlanInput) {}, ""},
		{"missing siteUrl", func(in *models.PlanInput) { in.SiteURL = "" }, "siteUrl"},
		{"missing owner", func(in *models.PlanInput) { in.TargetRepo.Owner = "" }, "owner"},
		{"missing repo", func(in *models.PlanInput) { in.TargetRepo.Repo = "" }, "repo"},
		{"no planned files", func(in *models.PlanInput) { in.PlannedFiles = nil }, "plannedFiles"},
		{"no patches", func(in *models.PlanInput) { in.Patches = nil }, "patches"},
		{"bad action", func(in *models.PlanInput) { in.PlannedFiles[0].Action = "replace" }, "action"},
		{"patch missing path", func(in *models.PlanInput) { in.Patches[0].FilePath = "" }, "filePath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPlanInput()
			tt.mutate(&in)
			err := ValidatePlanInput(&in)
			if tt.wantMsg == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, CodeValidation, err.Code)
			assert.Contains(t, err.Message, tt.wantMsg)
		})
	}
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "review_session_abc", StorageKey("abc"))

	id, ok := SessionIDFromKey("review_session_abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = SessionIDFromKey("audit_run_abc")
	assert.False(t, ok)
}
