package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "pagelift.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := `{"sessionId":"abc","status":"pending"}`
	require.NoError(t, s.PutSession(ctx, "abc", record, time.Hour))

	got, ok, err := s.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, record, got)

	_, ok, err = s.GetSession(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionKeyShape(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSession(ctx, "abc", "{}", time.Hour))

	records, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "review_session_abc", records[0].Key)
	assert.Equal(t, "abc", records[0].SessionID)
}

func TestSessionUpsertOverwritesRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSession(ctx, "abc", `{"status":"pending"}`, time.Hour))
	require.NoError(t, s.PutSession(ctx, "abc", `{"status":"approved"}`, time.Hour))

	got, ok, err := s.GetSession(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"status":"approved"}`, got)
}

func TestUpdateSessionRecordCAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSession(ctx, "abc", "v1", time.Hour))

	// Swap succeeds when prev matches.
	swapped, err := s.UpdateSessionRecord(ctx, "abc", "v1", "v2")
	require.NoError(t, err)
	assert.True(t, swapped)

	// Stale prev loses the swap and leaves the record untouched.
	swapped, err = s.UpdateSessionRecord(ctx, "abc", "v1", "v3")
	require.NoError(t, err)
	assert.False(t, swapped)

	got, _, err := s.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	// Missing session also loses.
	swapped, err = s.UpdateSessionRecord(ctx, "missing", "v1", "v2")
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestPurgeExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSession(ctx, "live", "{}", time.Hour))
	require.NoError(t, s.PutSession(ctx, "dead", "{}", time.Millisecond))

	n, err := s.PurgeExpiredSessions(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err := s.GetSession(ctx, "dead")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSession(ctx, "abc", "{}", time.Hour))
	require.NoError(t, s.DeleteSession(ctx, "abc"))

	err := s.DeleteSession(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAuditRunCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &models.AuditRun{
		SiteURL:      "https://acmeplumbing.example",
		Score:        72,
		PagesCrawled: 3,
		Pages: []models.PageReport{
			{
				Signals: models.PageSignals{URL: "https://acmeplumbing.example/", Title: "Acme", TitleLength: 4},
				Score:   72,
				Findings: []models.Finding{
					{Rule: "title-too-short", Severity: "warning", Message: "title is under 30 characters"},
				},
			},
		},
	}
	require.NoError(t, s.CreateAuditRun(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := s.GetAuditRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.SiteURL, got.SiteURL)
	assert.Equal(t, 72, got.Score)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, "title-too-short", got.Pages[0].Findings[0].Rule)

	runs, err := s.ListAuditRuns(ctx, "https://acmeplumbing.example", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = s.GetAuditRun(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestContentRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &models.ContentRecord{
		SiteURL: "https://acmeplumbing.example",
		Kind:    models.ContentKindFAQ,
		Target:  "/services",
		Payload: `{"items":[]}`,
	}
	require.NoError(t, s.CreateContentRecord(ctx, rec))
	require.NotEmpty(t, rec.ID)

	records, err := s.ListContentRecords(ctx, "https://acmeplumbing.example", models.ContentKindFAQ)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/services", records[0].Target)

	records, err = s.ListContentRecords(ctx, "https://acmeplumbing.example", models.ContentKindTitle)
	require.NoError(t, err)
	assert.Empty(t, records)
}
