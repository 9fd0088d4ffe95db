package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/models"
)

func testSession(t *testing.T) *models.ReviewSession {
	t.Helper()
	orig := "<html>old</html>"
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &models.ReviewSession{
		SessionID:       "b2c7e6d4-1f3a-4a8b-9c5d-2e1f0a9b8c7d",
		Status:          models.SessionStatusPending,
		SiteURL:         "https://acmeplumbing.example",
		SelectedTargets: []string{"/", "/services"},
		TargetRepo: models.TargetRepo{
			Owner:       "acme",
			Repo:        "acme-site",
			Branch:      "main",
			ProjectType: "static",
		},
		PlannedFiles: []models.PlannedFile{
			{
				URL:         "https://acmeplumbing.example/services",
				FilePath:    "public/services/index.html",
				Action:      models.FileActionUpdate,
				ReviewNotes: []string{"title rewritten"},
			},
		},
		DiffPreviews: []models.DiffPreview{
			{FilePath: "public/services/index.html", Action: models.FileActionUpdate, Diff: "-old\n+new\n"},
		},
		Patches: []models.FilePatch{
			{
				URL:             "https://acmeplumbing.example/services",
				FilePath:        "public/services/index.html",
				NewContent:      "<html>new</html>",
				OriginalContent: &orig,
			},
		},
		CreatedAt:  created,
		ExpiresAt:  created.Add(DefaultTTL),
		CommitShas: []string{},
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	s := testSession(t)

	record, err := Serialize(s)
	require.NoError(t, err)

	got := Deserialize(record)
	require.NotNil(t, got)
	assert.Equal(t, s, got)
}

func TestSerializeRoundTripApplied(t *testing.T) {
	s := testSession(t)
	s.Status = models.SessionStatusApplied
	s.CommitShas = []string{"abc123", "def456"}

	record, err := Serialize(s)
	require.NoError(t, err)

	got := Deserialize(record)
	require.NotNil(t, got)
	assert.Equal(t, s, got)
}

func TestDeserializeInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"not json", "not valid json"},
		{"empty string", ""},
		{"json scalar", `42`},
		{"missing everything", `{"sessionId":"test"}`},
		{"missing patches", `{
			"sessionId":"a","status":"pending","siteUrl":"https://x.example",
			"createdAt":"2026-03-14T09:26:53Z","expiresAt":"2026-03-15T09:26:53Z",
			"targetRepo":{"owner":"o","repo":"r"},
			"plannedFiles":[],"diffPreviews":[]
		}`},
		{"missing timestamps", `{
			"sessionId":"a","status":"pending","siteUrl":"https://x.example",
			"targetRepo":{"owner":"o","repo":"r"},
			"plannedFiles":[],"diffPreviews":[],"patches":[]
		}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Deserialize(tt.record))
		})
	}
}

func TestDeserializeDefaultsCommitShas(t *testing.T) {
	// Older records may omit commitShas entirely; an empty slice is the
	// canonical form.
	record := `{
		"sessionId":"a","status":"pending","siteUrl":"https://x.example",
		"createdAt":"2026-03-14T09:26:53Z","expiresAt":"2026-03-15T09:26:53Z",
		"targetRepo":{"owner":"o","repo":"r"},
		"plannedFiles":[],"diffPreviews":[],"patches":[]
	}`
	got := Deserialize(record)
	require.NotNil(t, got)
	assert.NotNil(t, got.CommitShas)
	assert.Empty(t, got.CommitShas)
}
