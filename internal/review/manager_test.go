package review

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/session"
	"github.com/pagelift/pagelift/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "pagelift.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testPlan() models.PlanInput {
	orig := "<html>old</html>"
	return models.PlanInput{
		SiteURL:         "https://acmeplumbing.example",
		SelectedTargets: []string{"/", "/services"},
		TargetRepo:      models.TargetRepo{Owner: "acme", Repo: "acme-site", Branch: "main", ProjectType: "static"},
		PlannedFiles: []models.PlannedFile{
			{URL: "https://acmeplumbing.example/services", FilePath: "public/services/index.html", Action: models.FileActionUpdate},
		},
		DiffPreviews: []models.DiffPreview{
			{FilePath: "public/services/index.html", Action: models.FileActionUpdate, Diff: "-old\n+new\n"},
		},
		Patches: []models.FilePatch{
			{URL: "https://acmeplumbing.example/services", FilePath: "public/services/index.html", NewContent: "<html>new</html>", OriginalContent: &orig},
		},
	}
}

func TestCreateSessionPersistsPending(t *testing.T) {
	m := NewManager(newTestStore(t), 0)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, testPlan())
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, s.Status)
	assert.Equal(t, s.CreatedAt.Add(session.DefaultTTL), s.ExpiresAt)

	got, err := m.GetSession(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestCreateSessionRejectsInvalidPlan(t *testing.T) {
	m := NewManager(newTestStore(t), 0)

	in := testPlan()
	in.SiteURL = ""
	_, err := m.CreateSession(context.Background(), in)

	var lerr *session.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, session.CodeValidation, lerr.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	m := NewManager(newTestStore(t), 0)

	_, err := m.GetSession(context.Background(), "nope")

	var lerr *session.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, session.CodeNotFound, lerr.Code)
}

func TestApproveTransition(t *testing.T) {
	m := NewManager(newTestStore(t), 0)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, testPlan())
	require.NoError(t, err)

	res, err := m.Approve(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, res.PreviousStatus)
	assert.Equal(t, models.SessionStatusApproved, res.NewStatus)

	got, err := m.GetSession(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusApproved, got.Status)
}

func TestApproveIdempotent(t *testing.T) {
	m := NewManager(newTestStore(t), 0)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, testPlan())
	require.NoError(t, err)

	_, err = m.Approve(ctx, s.SessionID)
	require.NoError(t, err)

	res, err := m.Approve(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusApproved, res.PreviousStatus)
	assert.Equal(t, models.SessionStatusApproved, res.NewStatus)

	// Re-approval leaves commitShas untouched.
	got, err := m.GetSession(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Empty(t, got.CommitShas)
}

func TestApproveExpiredSession(t *testing.T) {
	st := newTestStore(t)
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	m := NewManager(st, time.Hour).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	s, err := m.CreateSession(ctx, testPlan())
	require.NoError(t, err)

	clock = clock.Add(61 * time.Minute)
	_, err = m.Approve(ctx, s.SessionID)

	var lerr *session.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, session.CodeExpired, lerr.Code)
}

func TestApproveNotFound(t *testing.T) {
	m := NewManager(newTestStore(t), 0)

	_, err := m.Approve(context.Background(), "nope")

	var lerr *session.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, session.CodeNotFound, lerr.Code)
}

func TestListSessions(t *testing.T) {
	m := NewManager(newTestStore(t), 0)
	ctx := context.Background()

	a, err := m.CreateSession(ctx, testPlan())
	require.NoError(t, err)
	b, err := m.CreateSession(ctx, testPlan())
	require.NoError(t, err)

	sessions, err := m.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	ids := []string{sessions[0].SessionID, sessions[1].SessionID}
	assert.Contains(t, ids, a.SessionID)
	assert.Contains(t, ids, b.SessionID)
}
